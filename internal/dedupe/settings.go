package dedupe

import (
	"fmt"

	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"
)

// Fixed confidences of the two group labels.
const (
	DefiniteConfidence = 0.95
	PossibleConfidence = 0.80
)

// DefaultParallelThreshold is the input size from which amount buckets are
// grouped on a worker pool.
const DefaultParallelThreshold = 1000

// Settings controls duplicate grouping.
type Settings struct {
	// DateWindowExpense is the possible-duplicate window, in days, for
	// outflows (expense and debit).
	DateWindowExpense int `mapstructure:"date_window_expense" yaml:"date_window_expense"`
	// DateWindowIncome is the window for inflows (income and credit).
	DateWindowIncome    int     `mapstructure:"date_window_income" yaml:"date_window_income"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	// TreatSameAmountDifferentDate enables windowed possible duplicates.
	// When false, possible duplicates must share the same date.
	TreatSameAmountDifferentDate bool `mapstructure:"treat_same_amount_different_date" yaml:"treat_same_amount_different_date"`
	AutoSelectKeep               bool `mapstructure:"auto_select_keep" yaml:"auto_select_keep"`
	// ParallelThreshold is the input size from which buckets are processed
	// concurrently. Zero or negative disables the pool.
	ParallelThreshold int `mapstructure:"parallel_threshold" yaml:"parallel_threshold"`

	VendorAliases normalizer.AliasTable `mapstructure:"-" yaml:"-"`
}

// DefaultSettings returns the stock settings with the built-in alias table.
func DefaultSettings() Settings {
	return Settings{
		DateWindowExpense:            5,
		DateWindowIncome:             3,
		SimilarityThreshold:          0.85,
		TreatSameAmountDifferentDate: true,
		AutoSelectKeep:               true,
		ParallelThreshold:            DefaultParallelThreshold,
		VendorAliases:                normalizer.DefaultAliases(),
	}
}

// Validate rejects settings that would break grouping.
func (s Settings) Validate() error {
	if s.DateWindowExpense < 0 {
		return fmt.Errorf("date_window_expense must not be negative, got: %d", s.DateWindowExpense)
	}
	if s.DateWindowIncome < 0 {
		return fmt.Errorf("date_window_income must not be negative, got: %d", s.DateWindowIncome)
	}
	if s.SimilarityThreshold < 0.0 || s.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity_threshold must be between 0.0 and 1.0, got: %f", s.SimilarityThreshold)
	}
	return nil
}

// WindowFor returns the possible-duplicate date window for a transaction type.
func (s Settings) WindowFor(t models.TxnType) int {
	if t.IsOutflow() {
		return s.DateWindowExpense
	}
	return s.DateWindowIncome
}
