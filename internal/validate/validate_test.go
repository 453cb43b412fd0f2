package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"529.982.247-24", false}, // wrong check digit
		{"111.111.111-11", false}, // repeated digit
		{"00000000000", false},
		{"123", false},
		{"", false},
		{"abc.def.ghi-jk", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidCPF(tt.in), "cpf %q", tt.in)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("maria@example.com"))
	assert.True(t, IsValidEmail(" joao.silva@clinica.com.br "))
	assert.False(t, IsValidEmail("maria@"))
	assert.False(t, IsValidEmail("maria example.com"))
	assert.False(t, IsValidEmail("maria@localhost"))
	assert.False(t, IsValidEmail(""))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 98765-4321", "5511987654321"},
		{"11 3456-7890", "551134567890"},
		{"+55 11 98765-4321", "5511987654321"},
		{"5511987654321", "5511987654321"},
		{"011 98765-4321", "5511987654321"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in, "55"), "phone %q", tt.in)
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("5511987654321"))
	assert.False(t, IsValidPhone("+5511987654321")) // must be digits only
	assert.False(t, IsValidPhone("123"))
	assert.False(t, IsValidPhone("12345678901234567890"))
}

func TestNormalizeBirthdate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1990-05-17", "1990-05-17"},
		{"17/05/1990", "1990-05-17"},
		{"17-05-1990", "1990-05-17"},
		{"17.05.1990", "1990-05-17"},
		{"3/7/1985", "1985-07-03"},
		{"3000-01-01", ""}, // future
		{"1700-01-01", ""}, // implausible age
		{"yesterday", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBirthdate(tt.in), "birthdate %q", tt.in)
	}
}
