package contracts

import "time"

// Universe is the drawdown-filtered ticker set passed from S2 onwards
// ⭐ SSOT: S2 → S1/S3 투자 가능 ETF 전달
type Universe struct {
	Date       time.Time         `json:"date"`
	Tickers    []string          `json:"tickers"`
	Excluded   map[string]string `json:"excluded"`
	TotalCount int               `json:"total_count,omitempty"`
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// IsExcluded checks if a ticker is excluded with reason
func (u *Universe) IsExcluded(ticker string) (bool, string) {
	reason, exists := u.Excluded[ticker]
	return exists, reason
}

// Count returns the number of surviving tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}
