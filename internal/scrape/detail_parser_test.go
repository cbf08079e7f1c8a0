package scrape

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const detailRegNumber = "0173200001425000555"

func detailPage(body string) string {
	return `<html><body><h2>Общие сведения о закупке</h2>` + body + `</body></html>`
}

func TestParseDetails(t *testing.T) {
	html := detailPage(`
		<span class="cardMainInfo__title">Извещение № ` + detailRegNumber + `: проектирование капитального ремонта</span>
		<span class="cardMainInfo__purchaser">ГКУ Дирекция заказчика</span>
		<span class="cardMainInfo__price">5 600 000,00 ₽</span>
		<div class="noticeTabBox"><div class="tabContent">
			<p>Разработка <b>проектно-сметной документации</b> на капитальный ремонт здания
			общеобразовательной школы, включая инженерные изыскания и авторский надзор.</p>
		</div></div>
		<div class="blockFilesTabDocs">
			<div class="attachment">
				<span class="section__value">
					<a href="/filestore/download?uid=abc123" title="ТЗ_школа.pdf">Техническое задание</a>
				</span>
			</div>
			<div class="attachment">
				<span class="section__value"><a href="   ">Битая ссылка</a></span>
			</div>
		</div>
		<table class="participantsTable">
			<tr><td>ООО Проектировщик</td><td>7701234567</td><td>Москва</td><td>Победитель</td></tr>
			<tr><td>АО Изыскания</td><td>7807654321</td><td>Санкт-Петербург</td><td></td></tr>
		</table>`)

	pageURL := "https://zakupki.gov.ru/epz/order/notice/ea44/view/common-info.html?regNumber=" + detailRegNumber
	d := ParseDetails(html, detailRegNumber, pageURL)
	if d == nil {
		t.Fatal("ParseDetails returned nil for a valid page")
	}

	if d.RegNumber != detailRegNumber {
		t.Errorf("RegNumber = %q", d.RegNumber)
	}
	if !strings.Contains(d.Title, "проектирование капитального ремонта") {
		t.Errorf("Title = %q", d.Title)
	}
	if d.Customer != "ГКУ Дирекция заказчика" {
		t.Errorf("Customer = %q", d.Customer)
	}
	if !d.InitialPrice.Equal(decimal.RequireFromString("5600000")) {
		t.Errorf("InitialPrice = %s, want 5600000", d.InitialPrice)
	}
	if !strings.Contains(d.Description, "проектно-сметной документации") {
		t.Errorf("Description = %q", d.Description)
	}
	if strings.Contains(d.Description, "<b>") {
		t.Errorf("Description still carries markup: %q", d.Description)
	}
	if string(d.PageHTML) != html {
		t.Error("PageHTML must keep the page for snapshot export")
	}

	if len(d.Documents) != 1 {
		t.Fatalf("got %d documents, want 1 (empty hrefs skipped)", len(d.Documents))
	}
	doc := d.Documents[0]
	if doc.Name != "Техническое задание" {
		t.Errorf("document Name = %q", doc.Name)
	}
	if doc.URL != "https://zakupki.gov.ru/filestore/download?uid=abc123" {
		t.Errorf("document URL = %q, want absolute", doc.URL)
	}
	if doc.OriginalFilename != "ТЗ_школа.pdf" {
		t.Errorf("document OriginalFilename = %q", doc.OriginalFilename)
	}

	if len(d.Participants) != 2 {
		t.Fatalf("got %d participants, want 2", len(d.Participants))
	}
	if !d.Participants[0].IsWinner {
		t.Error("first participant marked Победитель should be the winner")
	}
	if d.Participants[0].INN != "7701234567" {
		t.Errorf("winner INN = %q", d.Participants[0].INN)
	}
	if d.Participants[1].IsWinner {
		t.Error("second participant should not be the winner")
	}
}

func TestParseDetailsRejectsForeignPage(t *testing.T) {
	// Right marker, wrong number: the portal sometimes serves another
	// notice under the probed URL.
	html := detailPage(`<span class="cardMainInfo__title">Другое извещение № 9999999999999999999</span>`)
	if d := ParseDetails(html, detailRegNumber, "https://zakupki.gov.ru/x"); d != nil {
		t.Error("expected nil for a page without the requested number")
	}
}

func TestParseDetailsRejectsErrorPlaceholder(t *testing.T) {
	// Right number but no notice marker: an HTTP 200 error placeholder.
	html := `<html><body>Страница не найдена. ` + detailRegNumber + `</body></html>`
	if d := ParseDetails(html, detailRegNumber, "https://zakupki.gov.ru/x"); d != nil {
		t.Error("expected nil for an error placeholder page")
	}
}

func TestParseDetailsShortDescriptionDropped(t *testing.T) {
	html := detailPage(`
		<span class="cardMainInfo__title">Извещение № ` + detailRegNumber + ` о закупке услуг</span>
		<div class="description">Кратко.</div>`)
	d := ParseDetails(html, detailRegNumber, "https://zakupki.gov.ru/x")
	if d == nil {
		t.Fatal("ParseDetails returned nil")
	}
	if d.Description != "" {
		t.Errorf("Description = %q, want empty for a stub", d.Description)
	}
}
