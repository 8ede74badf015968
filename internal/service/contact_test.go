package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
)

func TestContactCreate(t *testing.T) {
	repo := &fakeContactRepo{}
	svc := NewContactService(repo, discardLogger())

	msg, err := svc.Create(context.Background(), ContactInput{
		Name:    " Ayşe ",
		Email:   "AYSE@Example.com",
		Message: "Merhaba, nasılsın?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", msg.Name)
	assert.Equal(t, "ayse@example.com", msg.Email)
	assert.False(t, msg.IsRead)
	assert.Len(t, repo.msgs, 1)
}

func TestContactCreate_Validation(t *testing.T) {
	cases := []struct {
		name       string
		in         ContactInput
		wantFields []string
	}{
		{"everything missing", ContactInput{}, []string{"email", "message", "name"}},
		{"bad email", ContactInput{Name: "a", Email: "a@", Message: "long enough message"}, []string{"email"}},
		// 9 runes, 18 bytes: the length rule counts characters.
		{"short message", ContactInput{Name: "a", Email: "a@b.co", Message: "ğğğğğğğğğ"}, []string{"message"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeContactRepo{}
			svc := NewContactService(repo, discardLogger())

			_, err := svc.Create(context.Background(), tc.in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tc.wantFields, fieldsOf(err))
			assert.Empty(t, repo.msgs, "nothing is stored on validation failure")
		})
	}
}

func TestContactInbox(t *testing.T) {
	repo := &fakeContactRepo{}
	svc := NewContactService(repo, discardLogger())

	first, err := svc.Create(context.Background(), ContactInput{Name: "a", Email: "a@b.co", Message: "first message here"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), ContactInput{Name: "b", Email: "b@b.co", Message: "second message here"})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name, "newest first")

	opened, err := svc.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsRead)

	require.NoError(t, svc.Delete(context.Background(), first.ID))
	_, err = svc.Get(context.Background(), first.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), first.ID), apperror.ErrNotFound)
}

func TestContactList_StoreFailure(t *testing.T) {
	svc := NewContactService(&fakeContactRepo{err: errors.New("boom")}, discardLogger())
	_, err := svc.List(context.Background())
	assert.Error(t, err)
}
