package service

import (
	"strings"
	"testing"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSuggestionOverspendingInOneCategory(t *testing.T) {
	f := newFixture(t)
	rent := f.category(t, "Rent", domain.KindExpense)
	f.add(t, domain.KindIncome, "1000000", day(2024, 3, 1), nil)
	f.add(t, domain.KindExpense, "950000", day(2024, 3, 2), rent)

	s, err := f.svc.GenerateSuggestion(f.ctx, f.user.ID)
	require.NoError(t, err)

	assert.Contains(t, s.Text, overspendingSentence)
	assert.Contains(t, s.Text, "Spending on 'Rent' makes up 100.0% of total expenses.")
	// Income still exceeds expenses, so the savings rate sentence follows.
	assert.Contains(t, s.Text, "You saved 5.0% of your income.")
	assert.NotContains(t, s.Text, keepTrackingSentence)
	assert.Equal(t, now, s.CreatedAt)

	stored, err := f.svc.Suggestions(f.ctx, f.user.ID, 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, s.Text, stored[0].Text)
}

func TestGenerateSuggestionSkipsSavingsWhenExpensesExceedIncome(t *testing.T) {
	f := newFixture(t)
	rent := f.category(t, "Rent", domain.KindExpense)
	f.add(t, domain.KindIncome, "1000000", day(2024, 3, 1), nil)
	f.add(t, domain.KindExpense, "1050000", day(2024, 3, 2), rent)

	s, err := f.svc.GenerateSuggestion(f.ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t,
		overspendingSentence+" Spending on 'Rent' makes up 100.0% of total expenses. Look for ways to save in this category.",
		s.Text)
}

func TestGenerateSuggestionWithoutData(t *testing.T) {
	f := newFixture(t)

	s, err := f.svc.GenerateSuggestion(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, keepTrackingSentence, s.Text)
}

func TestGenerateSuggestionIgnoresOtherMonths(t *testing.T) {
	f := newFixture(t)
	f.add(t, domain.KindExpense, "999", day(2024, 2, 29), nil)

	s, err := f.svc.GenerateSuggestion(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, keepTrackingSentence, s.Text)
}

func TestAdviceSentences(t *testing.T) {
	categories := []domain.CategoryAmount{
		{Name: "Food", Amount: amount("300")},
		{Name: "Transport", Amount: amount("100")},
	}

	sentences := adviceSentences(amount("1000"), amount("400"), categories)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Spending on 'Food' makes up 75.0% of total expenses. Look for ways to save in this category.", sentences[0])
	assert.Equal(t, "Great! You saved 60.0% of your income this month. Consider investing this money.", sentences[1])

	// Expenses but no income: only the overspending and category rules apply.
	sentences = adviceSentences(amount("0"), amount("400"), categories)
	require.Len(t, sentences, 2)
	assert.Equal(t, overspendingSentence, sentences[0])

	// Zero expenses never divide.
	sentences = adviceSentences(amount("100"), amount("0"), []domain.CategoryAmount{{Name: "Food", Amount: amount("0")}})
	require.Len(t, sentences, 1)
	assert.True(t, strings.HasPrefix(sentences[0], "Great!"))
}

func TestSavingTips(t *testing.T) {
	f := newFixture(t)

	tips, err := f.svc.SavingTips(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"No spending data to analyze yet."}, tips)

	food := f.category(t, "Food", domain.KindExpense)
	fun := f.category(t, "Fun", domain.KindExpense)
	books := f.category(t, "Books", domain.KindExpense)
	gym := f.category(t, "Gym", domain.KindExpense)
	f.add(t, domain.KindExpense, "500", day(2024, 3, 10), food)
	f.add(t, domain.KindExpense, "250", day(2024, 3, 1), fun)
	f.add(t, domain.KindExpense, "150", day(2024, 2, 20), books)
	f.add(t, domain.KindExpense, "100", day(2024, 2, 20), gym)
	f.add(t, domain.KindExpense, "9000", day(2024, 1, 1), gym)

	tips, err = f.svc.SavingTips(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, tips, 5)
	assert.Contains(t, tips[0], "'Food' accounts for 50.0%")
	assert.Contains(t, tips[1], "'Fun' accounts for 25.0%")
	assert.Contains(t, tips[2], "'Books' accounts for 15.0%")
}

func TestClassifyNote(t *testing.T) {
	cases := map[string]NoteClass{
		"":                     NoteOther,
		"Morning COFFEE":       NoteFood,
		"ăn trưa":              NoteFood,
		"Grab to airport":      NoteTransport,
		"fuel for the bike":    NoteTransport,
		"Internet for March":   NoteBills,
		"tiền điện":            NoteBills,
		"birthday present":     NoteOther,
		"   ":                  NoteOther,
		"Dinner with friends":  NoteFood,
		"monthly parking fee":  NoteTransport,
		"wifi router upgrade!": NoteBills,
	}
	for note, want := range cases {
		assert.Equal(t, want, ClassifyNote(note), note)
	}
}
