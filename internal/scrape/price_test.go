package scrape

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain number", "1234567.89", "1234567.89"},
		{"russian format with currency", "1 234 567,89 ₽", "1234567.89"},
		{"nbsp thousands separator", "2 500 000,00 руб.", "2500000"},
		{"label noise stripped", "Начальная цена: 500 000,00 ₽", "500000"},
		{"keeps largest number", "от 100 000\nдо 750 000 руб", "750000"},
		{"kopeck correction above a billion", "150000000000", "1500000000"},
		{"a billion exactly is left alone", "1000000000", "1000000000"},
		{"empty", "", "0"},
		{"no digits", "цена не указана", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrice(tt.text)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("parsePrice(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"labeled price in card text",
			"Выполнение работ. Начальная цена контракта 2 450 000,00 ₽. Окончание подачи до 01.03.2025",
			"2450000",
		},
		{
			"стоимость label",
			"Стоимость: 1 200 000 руб.",
			"1200000",
		},
		{
			"implausibly small labeled value is skipped",
			"цена 500",
			"0",
		},
		{
			"unlabeled digits are ignored",
			"Извещение № 0173200001425000123 от 12.02.2025",
			"0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findPrice(tt.text)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("findPrice(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}
