// Package capture drives a headless Chrome through chromedp.
//
// Browser implements crawler.Browser: it loads a URL, waits until the
// network has been idle, takes a full-page PNG screenshot and reads the
// anchors of the rendered document. It can also sign in through a login
// form and replay the resulting session cookies on every later navigation.
//
// One Browser owns one tab and is driven sequentially.
package capture
