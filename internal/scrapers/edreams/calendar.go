package edreams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flightscraper/internal/browser"
)

const (
	xpathCalendarTitles    = `//div[contains(@class,"odf-calendar-title")]`
	xpathCalendarNextMonth = `//div/div/div/button/span[contains(@class,"odf-icon-arrow-right")]`
)

// ErrCalendarExhausted is returned when the wanted month is still not visible after
// the maximum number of "next month" clicks.
var ErrCalendarExhausted = errors.New("calendar exhausted")

var spanishMonths = [12]string{
	"Enero",
	"Febrero",
	"Marzo",
	"Abril",
	"Mayo",
	"Junio",
	"Julio",
	"Agosto",
	"Septiembre",
	"Octubre",
	"Noviembre",
	"Diciembre",
}

// MonthLabel is the title the date pickers show for the month of `date`, ex. "Marzo '25".
func MonthLabel(date time.Time) string {
	return fmt.Sprintf("%s '%02d", spanishMonths[date.Month()-1], date.Year()%100)
}

func dayXPath(label string, day int) string {
	return fmt.Sprintf(
		`//div[contains(@class,"odf-calendar-title") and contains(text(),"%s")]/following-sibling::div//div[contains(@class,"odf-calendar-day") and contains(text(),"%d")]`,
		label, day,
	)
}

// ShowMonth pages the date picker matched by `scope` forward until a month titled
// `label` is visible. maxPages < 0 never gives up.
func ShowMonth(ctx context.Context, b browser.Browser, scope, label string, maxPages int) error {
	titles := browser.Within(scope, xpathCalendarTitles)
	next := browser.Within(scope, xpathCalendarNextMonth)

	for pages := 0; ; pages++ {
		visible, err := b.Texts(ctx, titles)
		if err != nil {
			return err
		}
		for _, title := range visible {
			if strings.TrimSpace(title) == label {
				return nil
			}
		}
		if maxPages >= 0 && pages >= maxPages {
			return fmt.Errorf("%w: %q not visible after %d pages", ErrCalendarExhausted, label, pages)
		}
		err = b.Click(ctx, next)
		if err != nil {
			return fmt.Errorf("next month: %w", err)
		}
	}
}

// SelectDay clicks `day` in the month titled `label` of the date picker matched by `scope`.
func SelectDay(ctx context.Context, b browser.Browser, scope, label string, day int) error {
	err := b.Click(ctx, browser.Within(scope, dayXPath(label, day)))
	if err != nil {
		return fmt.Errorf("select day %d of %s: %w", day, label, err)
	}
	return nil
}

// SetDate shows the month of `date` in the date picker and clicks its day.
func SetDate(ctx context.Context, b browser.Browser, scope string, date time.Time, maxPages int) error {
	label := MonthLabel(date)
	err := ShowMonth(ctx, b, scope, label, maxPages)
	if err != nil {
		return err
	}
	return SelectDay(ctx, b, scope, label, date.Day())
}
