package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	v := NewAddressValidator()

	tests := []struct {
		name       string
		address    string
		wantLocal  string
		wantDomain string
		wantErr    bool
	}{
		{"Valid address", "test@example.com", "test", "example.com", false},
		{"Valid with subdomain", "user@mail.example.com", "user", "mail.example.com", false},
		{"Valid with dots", "john.doe@gmail.com", "john.doe", "gmail.com", false},
		{"Valid with plus", "user+tag@example.com", "user+tag", "example.com", false},
		{"Valid with percent", "user%x@example.com", "user%x", "example.com", false},
		{"Uppercase normalized", "John.Doe@GMAIL.COM", "john.doe", "gmail.com", false},
		{"Surrounding space trimmed", "  test@example.com  ", "test", "example.com", false},
		{"Invalid - no @", "testexample.com", "", "", true},
		{"Invalid - multiple @", "test@@example.com", "", "", true},
		{"Invalid - empty local", "@example.com", "", "", true},
		{"Invalid - empty domain", "test@", "", "", true},
		{"Invalid - no dot in domain", "test@localhost", "", "", true},
		{"Invalid - single letter TLD", "test@example.c", "", "", true},
		{"Invalid - bad local chars", "te$st@example.com", "", "", true},
		{"Invalid - inner space", "te st@example.com", "", "", true},
		{"Invalid - empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, domainName, err := v.Parse(tt.address)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantLocal, local)
			assert.Equal(t, tt.wantDomain, domainName)
		})
	}
}

// 对合法地址，local + "@" + domain 应当还原为小写后的输入。
func TestParseAddressRoundTrip(t *testing.T) {
	v := NewAddressValidator()

	for _, address := range []string{
		"test@example.com",
		"John.Doe@Gmail.com",
		"user+tag@sub.example.org",
		"a_b%c@mail.example.co",
	} {
		local, domainName, err := v.Parse(address)
		assert.NoError(t, err)
		assert.Equal(t, strings.ToLower(address), local+"@"+domainName)
	}
}

func TestParseAddressLengthLimits(t *testing.T) {
	v := NewAddressValidator()

	longLocal := make([]byte, MaxLocalPartLength+1)
	for i := range longLocal {
		longLocal[i] = 'a'
	}
	_, _, err := v.Parse(string(longLocal) + "@example.com")
	assert.ErrorIs(t, err, ErrLocalPartTooLong)
}

func TestClassifyDomain(t *testing.T) {
	v := NewAddressValidator()

	tests := []struct {
		domain   string
		expected DomainClass
	}{
		{"gmail.com", DomainGmailLike},
		{"googlemail.com", DomainGmailLike},
		{"GMAIL.COM", DomainGmailLike},
		{"example.com", DomainGeneric},
		{"gmail.com.evil.com", DomainGeneric},
		{"mail.gmail.com", DomainGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.ClassifyDomain(tt.domain))
		})
	}
}
