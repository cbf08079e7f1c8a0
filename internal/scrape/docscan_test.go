package scrape

import (
	"testing"
	"time"
)

func TestScanTextDeadlines(t *testing.T) {
	t.Run("labeled dates win over unlabeled", func(t *testing.T) {
		text := "Извещение опубликовано 10.01.2025\n" +
			"Срок подачи заявок: 01.03.2025 10:00\n" +
			"Дата окончания рассмотрения: 15.03.2025\n" +
			"Приложение from 2024\n"

		got := scanTextDeadlines(text)
		want := []time.Time{
			time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		}
		if len(got) != len(want) {
			t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
		}
		for i := range want {
			if !got[i].Equal(want[i]) {
				t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("all dates when nothing is labeled", func(t *testing.T) {
		text := "Контракт заключается 20.04.2025\nОбеспечение вносится до 05.04.2025\n"
		got := scanTextDeadlines(text)
		if len(got) != 2 {
			t.Fatalf("got %d dates, want 2: %v", len(got), got)
		}
		if !got[0].Before(got[1]) {
			t.Errorf("dates not sorted ascending: %v", got)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		text := "Срок подачи: 01.03.2025\nСрок подачи (повтор): 01.03.2025\n"
		got := scanTextDeadlines(text)
		if len(got) != 1 {
			t.Fatalf("got %d dates, want 1: %v", len(got), got)
		}
	})

	t.Run("no dates", func(t *testing.T) {
		if got := scanTextDeadlines("сроки уточняются у заказчика"); len(got) != 0 {
			t.Fatalf("got %v, want empty", got)
		}
	})
}

func TestExtractPDFTextMalformed(t *testing.T) {
	if _, err := extractPDFText([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected an error for malformed input")
	}
}
