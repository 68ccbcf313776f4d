package edreams

import (
	"fmt"
	"strings"
)

type cardFixture struct {
	airports     int
	withUnit     bool
	emptyLayover bool
	outboundStop string
	baggage      []string
}

func defaultCard() cardFixture {
	return cardFixture{
		airports:     8,
		withUnit:     true,
		outboundStop: "directo",
		baggage:      []string{"Equipaje de mano", "Artículo personal"},
	}
}

var airportNames = []string{
	"Madrid Barajas", "MAD", "Roma Fiumicino", "FCO",
	"Roma Fiumicino", "FCO", "Madrid Barajas", "MAD",
}

func (c cardFixture) render() string {
	var sb strings.Builder
	sb.WriteString(`<div data-testid="itinerary"><div class="card">`)

	for i := 0; i < c.airports; i++ {
		fmt.Fprintf(&sb, `<div type="small">%s</div>`, airportNames[i%len(airportNames)])
	}

	sb.WriteString(`<img alt="Iberia" src="ib.png"><img alt="Vueling" src="vy.png"><img alt="Iberia" src="ib.png"><img src="x.png">`)

	for _, t := range []string{"07:10", "09:40", "18:05", "20:45"} {
		fmt.Fprintf(&sb, `<div class="sc-1x2y3z-BaseText-Body">%s</div>`, t)
	}
	// same class family but not a time
	sb.WriteString(`<div class="sc-1x2y3z-BaseText-Body">Ida</div>`)

	sb.WriteString(`<div class="legs">`)
	sb.WriteString(`<div orientation="horizontal" class="sep"></div>`)
	if c.emptyLayover {
		sb.WriteString(`<div></div>`)
	} else {
		fmt.Fprintf(&sb, `<div><span>2 h 30 min</span><span>%s</span></div>`, c.outboundStop)
	}
	sb.WriteString(`<div orientation="horizontal" class="sep"></div>`)
	sb.WriteString(`<div><span>2 h 40 min</span></div>`)
	sb.WriteString(`</div>`)

	for _, bag := range c.baggage {
		fmt.Fprintf(
			&sb,
			`<div class="bags"><div class="row"><div class="icon"><svg viewBox="0 0 24 24"><path fill-rule="evenodd" clip-rule="evenodd" d="M0 0h24v24H0z"></path></svg></div></div><div>%s</div></div>`,
			bag,
		)
	}

	if c.withUnit {
		sb.WriteString(`<a href="#"><span><span class="money-integer">123</span></span></a>`)
	}
	sb.WriteString(`<span class="money-integer">140</span>`)

	sb.WriteString(`</div></div>`)
	return sb.String()
}

func resultsPage(cards ...cardFixture) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="results_list_container">`)
	for _, c := range cards {
		sb.WriteString(c.render())
	}
	sb.WriteString(`<button>Mostrar más resultados</button></div></body></html>`)
	return sb.String()
}

const destinationsPage = `<html><body>
<div class="od-inspirational-grid">
	<article class="od-inspirational-grid-col"><figure data-iata="FCO"><img alt="Roma"></figure></article>
	<article class="od-inspirational-grid-col"><figure data-iata="LIS"><img alt="Lisboa"></figure></article>
	<article class="od-inspirational-grid-col"><figure data-iata="FCO"><img alt="Roma"></figure></article>
	<article class="od-inspirational-grid-col"><div>Descubre destinos</div></article>
	<article class="od-inspirational-grid-col"><figure data-iata=""></figure></article>
	<article class="other"><figure data-iata="OPO"></figure></article>
</div>
</body></html>`
