package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"testing"

	"flightscraper/internal/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testPage = `<html><body>
<input id="origin" test-id="input-airport">
<ul>
	<li><span class="city">Madrid</span></li>
	<li><span class="city">Roma</span></li>
</ul>
<button id="more" onclick="document.getElementById('out').innerText = 'clicked'">Mostrar más</button>
<div id="out"></div>
<div style="height: 5000px"></div>
</body></html>`

func setupChrome(t *testing.T) Browser {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "chromedp/headless-shell:latest",
			ExposedPorts: []string{"9222/tcp"},
			WaitingFor:   wait.ForListeningPort("9222/tcp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := container.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "9222/tcp", "ws")
	if err != nil {
		t.Fatal(err)
	}

	launcher := NewChromeLauncher(ChromeConfig{RemoteUrl: endpoint}, telemetry.NewRecorderAPI())
	b, err := launcher.Launch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestChromeSession(t *testing.T) {
	b := setupChrome(t)
	ctx := context.Background()

	err := b.Navigate(ctx, fmt.Sprintf("data:text/html,%s", url.PathEscape(testPage)))
	require.NoError(t, err)
	require.NoError(t, b.Maximize(ctx))

	n, err := b.Count(ctx, `//span[contains(@class,"city")]`)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = b.Count(ctx, `//div[@id="missing"]`)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	texts, err := b.Texts(ctx, `//span[contains(@class,"city")]`)
	require.NoError(t, err)
	require.Equal(t, []string{"Madrid", "Roma"}, texts)

	require.NoError(t, b.SendKeys(ctx, `//input[@test-id="input-airport"]`, "MAD"))

	require.NoError(t, b.Click(ctx, ById("more")))
	texts, err = b.Texts(ctx, ById("out"))
	require.NoError(t, err)
	require.Equal(t, []string{"clicked"}, texts)

	err = b.Click(ctx, ById("missing"))
	require.True(t, errors.Is(err, ErrElementNotFound))

	require.NoError(t, b.ScrollBy(ctx, 10000))

	document, err := b.HTML(ctx)
	require.NoError(t, err)
	require.Contains(t, document, `test-id="input-airport"`)
}

func TestWithin(t *testing.T) {
	require.Equal(t, `//div[@a]//span`, Within(`//div[@a]`, `//span`))
	require.Equal(t, `//div[@a]//span`, Within(`//div[@a]`, `span`))
	require.Equal(t, `//*[@id="x"]`, ById("x"))
}
