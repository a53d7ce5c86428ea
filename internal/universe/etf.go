package universe

import (
	"strings"

	"github.com/sawpanic/equityrun/internal/models"
)

// knownETFs is the static exclusion list of widely traded fund tickers.
var knownETFs = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true, "VTI": true,
	"VOO": true, "IVV": true, "EEM": true, "EFA": true, "GLD": true,
	"SLV": true, "USO": true, "UNG": true, "TLT": true, "HYG": true,
	"LQD": true, "XLF": true, "XLE": true, "XLK": true, "XLV": true,
	"XLI": true, "XLP": true, "XLU": true, "XLY": true, "XLB": true,
	"XLRE": true, "XBI": true, "SMH": true, "ARKK": true, "ARKG": true,
	"KWEB": true, "FXI": true, "EWZ": true, "GDX": true, "GDXJ": true,
	"XRT": true, "ITB": true, "JETS": true, "KRE": true, "IBB": true,
}

// knownLeveraged is the static leveraged/inverse product list. These trade
// like stocks but are never common-stock candidates.
var knownLeveraged = map[string]bool{
	"TQQQ": true, "SQQQ": true, "SPXL": true, "SPXU": true, "UPRO": true,
	"SDOW": true, "UDOW": true, "SOXL": true, "SOXS": true, "LABU": true,
	"LABD": true, "TNA": true, "TZA": true, "FAS": true, "FAZ": true,
	"UVXY": true, "SVXY": true, "VXX": true, "VIXY": true, "NUGT": true,
	"DUST": true, "JNUG": true, "JDST": true, "YINN": true, "YANG": true,
	"TSLL": true, "TSLS": true, "NVDL": true, "NVDS": true, "BOIL": true,
	"KOLD": true, "DRV": true, "DRN": true, "ERX": true, "ERY": true,
}

// fundNameTokens flag a fund instrument when present in the descriptive
// name or asset-type metadata.
var fundNameTokens = []string{
	"etf", "etn", "fund", "trust", "index", "leveraged", "inverse",
	"2x", "3x", "ultra", "proshares", "ishares", "vanguard", "spdr",
	"direxion", "wisdomtree", "invesco", "global x", "vaneck",
}

// corporateTokens mark an operating company. Their presence vetoes the
// shares-outstanding heuristic below.
var corporateTokens = []string{
	"inc", "corp", "corporation", "ltd", "limited", "plc", "co.",
	"company", "holdings", "group", "technologies", "pharmaceuticals",
	"therapeutics", "industries", "systems", "enterprises",
}

// IsFund reports whether a snapshot looks like an ETF/ETN/fund instrument.
// The detector is intentionally conservative: ambiguity keeps the symbol.
func IsFund(s models.TickerSnapshot) bool {
	sym := strings.ToUpper(strings.TrimSpace(s.Symbol))
	if knownETFs[sym] || knownLeveraged[sym] {
		return true
	}

	assetType := strings.ToLower(s.AssetType)
	if assetType == "etf" || assetType == "etn" || assetType == "fund" ||
		strings.Contains(assetType, "exchange traded") {
		return true
	}

	name := strings.ToLower(s.Name)
	issuer := strings.ToLower(s.Issuer)
	for _, tok := range fundNameTokens {
		if name != "" && strings.Contains(name, tok) {
			return true
		}
		if issuer != "" && strings.Contains(issuer, tok) {
			return true
		}
	}

	return fundHeuristic(s, name)
}

// fundHeuristic flags very large share counts with no earnings date and no
// corporate-entity name markers. All three conditions must agree; a real
// company must never be dropped by this path alone.
func fundHeuristic(s models.TickerSnapshot, loweredName string) bool {
	const heuristicSharesFloor = 1_000_000_000

	if s.SharesOut < heuristicSharesFloor || s.HasEarnings {
		return false
	}
	if loweredName == "" {
		// No metadata to corroborate: keep.
		return false
	}
	for _, tok := range corporateTokens {
		if strings.Contains(loweredName, tok) {
			return false
		}
	}
	return true
}
