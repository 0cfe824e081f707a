package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotInPredicate(t *testing.T) {
	p := NotIn{Column: "csp", Values: []string{"1", "2"}}

	hit, err := p.Evaluate(Row{"csp": String("9")})
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = p.Evaluate(Row{"csp": String("1")})
	require.NoError(t, err)
	assert.False(t, hit)

	// Missing values never match; missing-value handling belongs to the
	// completeness step.
	hit, err = p.Evaluate(Row{"csp": Missing()})
	require.NoError(t, err)
	assert.False(t, hit)

	_, err = p.Evaluate(Row{"other": String("1")})
	assert.Error(t, err)
}

func TestNumericPredicates(t *testing.T) {
	lt := LessThan{Column: "kwh", Bound: 0}
	gt := GreaterThan{Column: "kwh", Bound: 100}

	hit, err := lt.Evaluate(Row{"kwh": Number(-3.5)})
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = lt.Evaluate(Row{"kwh": Number(3.5)})
	require.NoError(t, err)
	assert.False(t, hit)

	// String values are parsed before comparison.
	hit, err = gt.Evaluate(Row{"kwh": String("150.5")})
	require.NoError(t, err)
	assert.True(t, hit)

	// Non-numeric values never match.
	hit, err = gt.Evaluate(Row{"kwh": String("beaucoup")})
	require.NoError(t, err)
	assert.False(t, hit)

	_, err = gt.Evaluate(Row{"other": Number(1)})
	assert.Error(t, err)
}

func TestIsMissingPredicate(t *testing.T) {
	p := IsMissingPredicate{Column: "nom"}

	hit, err := p.Evaluate(Row{"nom": Missing()})
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = p.Evaluate(Row{"nom": String("Martin")})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPredicateDescribe(t *testing.T) {
	assert.Equal(t, "csp not in {1,2}", NotIn{Column: "csp", Values: []string{"1", "2"}}.Describe())
	assert.Equal(t, "kwh < 0", LessThan{Column: "kwh"}.Describe())
	assert.Equal(t, "kwh > 100", GreaterThan{Column: "kwh", Bound: 100}.Describe())
	assert.Equal(t, "nom is missing", IsMissingPredicate{Column: "nom"}.Describe())
}
