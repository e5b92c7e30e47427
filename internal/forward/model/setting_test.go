package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigPerPlatform(t *testing.T) {
	cases := []struct {
		platform Platform
		config   string
		want     PlatformConfig
	}{
		{
			PlatformTelegram,
			`{"bot_token":"123:abc","chat_id":"42","parse_mode":"HTML"}`,
			&TelegramConfig{BotToken: "123:abc", ChatID: "42", ParseMode: "HTML"},
		},
		{
			PlatformBark,
			`{"server_url":"https://bark.example.com","device_key":"key","archive":true}`,
			&BarkConfig{ServerURL: "https://bark.example.com", DeviceKey: "key", Archive: true},
		},
		{
			PlatformWebhook,
			`{"url":"https://hooks.example.com/x","timeout_seconds":30}`,
			&WebhookConfig{URL: "https://hooks.example.com/x", TimeoutSeconds: 30},
		},
		{
			PlatformWxPusher,
			`{"app_token":"AT_x","uids":["UID_1"]}`,
			&WxPusherConfig{AppToken: "AT_x", UIDs: StringList{"UID_1"}},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.platform), func(t *testing.T) {
			s := &ForwardSetting{Platform: tc.platform, Config: json.RawMessage(tc.config)}
			got, err := s.DecodeConfig()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeConfigUnknownPlatform(t *testing.T) {
	s := &ForwardSetting{Platform: "pigeon"}
	_, err := s.DecodeConfig()
	require.Error(t, err)
}

func TestDecodeConfigEmptyColumn(t *testing.T) {
	s := &ForwardSetting{Platform: PlatformTelegram}
	got, err := s.DecodeConfig()
	require.NoError(t, err)

	// Decodes to a zero value; validation is where it fails.
	require.Error(t, got.Validate())
}

func TestTemplateOrDefault(t *testing.T) {
	s := &ForwardSetting{Template: ""}
	assert.Equal(t, DefaultTemplate, s.TemplateOrDefault())

	s.Template = "{content}"
	assert.Equal(t, "{content}", s.TemplateOrDefault())
}

func TestNewDefaultSetting(t *testing.T) {
	s := NewDefaultSetting(PlatformBark)

	assert.Equal(t, PlatformBark, s.Platform)
	assert.False(t, s.Enabled)
	assert.Equal(t, DefaultTemplate, s.Template)
	assert.JSONEq(t, "{}", string(s.Config))

	decoded, err := s.DecodeConfig()
	require.NoError(t, err)
	require.Error(t, decoded.Validate())
}

func TestPlatformConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		cfg     PlatformConfig
		wantErr bool
	}{
		{"telegram complete", &TelegramConfig{BotToken: "t", ChatID: "c"}, false},
		{"telegram missing chat", &TelegramConfig{BotToken: "t"}, true},
		{"bark complete", &BarkConfig{ServerURL: "u", DeviceKey: "k"}, false},
		{"bark missing key", &BarkConfig{ServerURL: "u"}, true},
		{"webhook complete", &WebhookConfig{URL: "u"}, false},
		{"webhook missing url", &WebhookConfig{}, true},
		{"wxpusher with uid", &WxPusherConfig{AppToken: "a", UIDs: StringList{"u"}}, false},
		{"wxpusher with topic", &WxPusherConfig{AppToken: "a", TopicIDs: StringList{"1"}}, false},
		{"wxpusher no target", &WxPusherConfig{AppToken: "a"}, true},
		{"wxpusher no token", &WxPusherConfig{UIDs: StringList{"u"}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestStringListUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want StringList
	}{
		{"string array", `["a","b"]`, StringList{"a", "b"}},
		{"number array", `[100,200]`, StringList{"100", "200"}},
		{"mixed array", `["a",7]`, StringList{"a", "7"}},
		{"comma separated", `"a, b ,c"`, StringList{"a", "b", "c"}},
		{"single string", `"a"`, StringList{"a"}},
		{"null", `null`, nil},
		{"empty array", `[]`, StringList{}},
		{"blank entries dropped", `[" ",""]`, StringList{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}

	var got StringList
	require.Error(t, json.Unmarshal([]byte(`[true]`), &got))
}

func TestStringListInts(t *testing.T) {
	l := StringList{"100", "x", "200"}
	assert.Equal(t, []int{100, 200}, l.Ints())
}

func TestFilterRulesEmpty(t *testing.T) {
	assert.True(t, FilterRules{}.Empty())
	assert.True(t, FilterRules{BlockCallNumbers: []string{"400"}}.Empty())
	assert.False(t, FilterRules{Keywords: []string{"k"}}.Empty())
	assert.False(t, FilterRules{Senders: []string{"s"}}.Empty())
	assert.False(t, FilterRules{Devices: []string{"d"}}.Empty())
	assert.False(t, FilterRules{SimCards: []string{"id"}}.Empty())
}

func TestFilterRulesScanRoundTrip(t *testing.T) {
	rules := FilterRules{Keywords: []string{"验证码"}, BlockCallNumbers: []string{"400"}}

	value, err := rules.Value()
	require.NoError(t, err)

	var scanned FilterRules
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, rules, scanned)

	var fromNil FilterRules
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.Empty())
}
