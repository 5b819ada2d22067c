// Package driver provides the browser automation backends for the CLI.
// It includes a chromedp handle for local Chrome and remote CDP endpoints,
// a go-rod handle with stealth evasions, and a Browserbase session broker.
package driver
