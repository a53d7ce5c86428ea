package scoring

import (
	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

// Classify maps a composite score to an action tag via ordered threshold
// bands. Pure comparison, no state.
func Classify(totalScore float64, cfg config.TierConfig) models.ActionTag {
	switch {
	case totalScore >= cfg.TradeReady:
		return models.ActionTradeReady
	case totalScore >= cfg.Watchlist:
		return models.ActionWatchlist
	case totalScore >= cfg.Monitor:
		return models.ActionMonitor
	default:
		return models.ActionRejected
	}
}
