package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"quantcrew/internal/config"
	"quantcrew/internal/dataflows"
	"quantcrew/internal/display"
	"quantcrew/internal/models"
	"quantcrew/internal/trading"
)

// runInteractive walks the user through one analysis: symbol, date, analyst
// selection, and execution mode.
func runInteractive(cfg *config.Config) error {
	symbol, err := promptSymbol()
	if err != nil {
		return err
	}
	date, err := promptDate()
	if err != nil {
		return err
	}
	analysts, err := promptAnalysts(cfg.SelectedAnalysts)
	if err != nil {
		return err
	}
	cfg.SelectedAnalysts = analysts

	parallel := cfg.ParallelAnalysts
	if err := survey.AskOne(&survey.Confirm{
		Message: "Run analysts concurrently?",
		Default: parallel,
	}, &parallel); err != nil {
		return err
	}
	cfg.ParallelAnalysts = parallel

	session := trading.NewSession(cfg, symbol, date)
	if err := session.Execute(context.Background()); err != nil {
		display.Error("analysis", err)
		return err
	}
	return nil
}

func promptSymbol() (string, error) {
	var symbol string
	err := survey.AskOne(&survey.Input{
		Message: "Stock ticker symbol (e.g. AAPL, 700.HK):",
	}, &symbol, survey.WithValidator(func(val interface{}) error {
		s := strings.ToUpper(strings.TrimSpace(val.(string)))
		if s == "" {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		return dataflows.ValidateSymbol(s)
	}))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(symbol)), nil
}

func promptDate() (string, error) {
	var date string
	err := survey.AskOne(&survey.Input{
		Message: "Analysis date (YYYY-MM-DD):",
		Default: time.Now().Format("2006-01-02"),
	}, &date, survey.WithValidator(func(val interface{}) error {
		_, perr := time.Parse("2006-01-02", strings.TrimSpace(val.(string)))
		if perr != nil {
			return fmt.Errorf("expected YYYY-MM-DD")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(date), nil
}

func promptAnalysts(defaults []string) ([]string, error) {
	options := make([]string, 0, len(models.AllAnalysts()))
	for _, kind := range models.AllAnalysts() {
		options = append(options, string(kind))
	}

	var selected []string
	err := survey.AskOne(&survey.MultiSelect{
		Message: "Select analysts:",
		Options: options,
		Default: defaults,
	}, &selected, survey.WithValidator(survey.MinItems(1)))
	if err != nil {
		return nil, err
	}
	return selected, nil
}
