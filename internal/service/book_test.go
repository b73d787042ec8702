package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
)

func TestBookService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.books.Create(ctx, adminActor, CreateBookRequest{
		Title:           "  A Wizard of Earthsea ",
		Author:          "Ursula K. Le Guin",
		ISBN:            "978-0-553-38304-4",
		PublicationDate: ptr("1968-11-01"),
		CopiesAvailable: 3,
	})
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.Equal(t, "A Wizard of Earthsea", b.Title)
	assert.Equal(t, "9780553383044", b.ISBN)
	assert.Equal(t, "admin@example.com", b.CreatedBy)
	require.NotNil(t, b.PublicationDate)
	assert.Equal(t, "1968-11-01", domain.FormatDate(*b.PublicationDate))

	got, err := f.books.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ISBN, got.ISBN)
	assert.Equal(t, 3, got.CopiesAvailable)
}

func TestBookService_CreateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)

	tests := []struct {
		name string
		req  CreateBookRequest
		want error
	}{
		{"duplicate isbn", CreateBookRequest{Title: "Copy", Author: "A", ISBN: "978-0553383044"}, domainerrors.ErrAlreadyExists},
		{"missing title", CreateBookRequest{Author: "A", ISBN: "0261103571"}, domainerrors.ErrValidation},
		{"blank title", CreateBookRequest{Title: "   ", Author: "A", ISBN: "0261103571"}, domainerrors.ErrValidation},
		{"blank author", CreateBookRequest{Title: "T", Author: "  ", ISBN: "0261103571"}, domainerrors.ErrValidation},
		{"bad isbn", CreateBookRequest{Title: "T", Author: "A", ISBN: "12345"}, domainerrors.ErrValidation},
		{"negative copies", CreateBookRequest{Title: "T", Author: "A", ISBN: "0261103571", CopiesAvailable: -1}, domainerrors.ErrValidation},
		{"future publication", CreateBookRequest{Title: "T", Author: "A", ISBN: "0261103571", PublicationDate: ptr("2024-06-16")}, domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.books.Create(ctx, adminActor, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookService_CreateBulkIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)

	_, err := f.books.CreateBulk(ctx, adminActor, BulkCreateBooksRequest{Books: []CreateBookRequest{
		{Title: "The Tombs of Atuan", Author: "Le Guin", ISBN: "9780689845369"},
		{Title: "Earthsea again", Author: "Le Guin", ISBN: "9780553383044"},
	}})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, total, err := f.store.SearchBooks(ctx, store.BookFilter{}, domain.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "failed batch must not leave partial rows")

	_, err = f.books.CreateBulk(ctx, adminActor, BulkCreateBooksRequest{Books: []CreateBookRequest{
		{Title: "One", Author: "A", ISBN: "0261103571"},
		{Title: "Two", Author: "A", ISBN: "0-261-10357-1"},
	}})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	books, err := f.books.CreateBulk(ctx, adminActor, BulkCreateBooksRequest{Books: []CreateBookRequest{
		{Title: "The Tombs of Atuan", Author: "Le Guin", ISBN: "9780689845369", CopiesAvailable: 2},
		{Title: "The Farthest Shore", Author: "Le Guin", ISBN: "9780689845345", CopiesAvailable: 2},
	}})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.NotEqual(t, books[0].ID, books[1].ID)
}

func TestBookService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)
	other := f.addBook(t, "9780689845369", "The Tombs of Atuan", 1)

	f.clock.AddDays(1)
	updated, err := f.books.Update(ctx, memberActor, b.ID, UpdateBookRequest{
		Genre:           ptr("Young adult"),
		CopiesAvailable: ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Young adult", updated.Genre)
	assert.Equal(t, 5, updated.CopiesAvailable)
	assert.Equal(t, "A Wizard of Earthsea", updated.Title)
	assert.Equal(t, "student@example.com", updated.UpdatedBy)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.books.Update(ctx, adminActor, b.ID, UpdateBookRequest{ISBN: ptr(other.ISBN)})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, err = f.books.Update(ctx, adminActor, 9999, UpdateBookRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBookService_RejectsBlankText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)

	_, err := f.books.CreateBulk(ctx, adminActor, BulkCreateBooksRequest{Books: []CreateBookRequest{
		{Title: "The Tombs of Atuan", Author: "Le Guin", ISBN: "9780689845369"},
		{Title: "\t", Author: "Le Guin", ISBN: "9780689845376"},
	}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = f.books.Update(ctx, adminActor, b.ID, UpdateBookRequest{Title: ptr("   ")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = f.books.Update(ctx, adminActor, b.ID, UpdateBookRequest{Author: ptr("")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	got, err := f.books.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A Wizard of Earthsea", got.Title)
	assert.NotEmpty(t, got.Author)

	updated, err := f.books.Update(ctx, adminActor, b.ID, UpdateBookRequest{Title: ptr(" Earthsea "), Genre: ptr(" Fantasy ")})
	require.NoError(t, err)
	assert.Equal(t, "Earthsea", updated.Title)
	assert.Equal(t, "Fantasy", updated.Genre)
}

func TestBookService_DeleteCascadesTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780553383044", "A Wizard of Earthsea", 3)
	m1 := f.addMember(t, "Asha", "asha@example.com", domain.RoleStudent)
	m2 := f.addMember(t, "Ravi", "ravi@example.com", domain.RoleFaculty)

	t1, err := f.transactions.Create(ctx, adminActor, CreateTransactionRequest{BookID: b.ID, MemberID: m1.ID})
	require.NoError(t, err)
	t2, err := f.transactions.Create(ctx, adminActor, CreateTransactionRequest{BookID: b.ID, MemberID: m2.ID})
	require.NoError(t, err)

	require.NoError(t, f.books.Delete(ctx, adminActor, b.ID))

	_, err = f.books.Get(ctx, b.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	for _, id := range []int64{t1.ID, t2.ID} {
		_, err = f.transactions.Get(ctx, id)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		revs, err := f.transactions.Revisions(ctx, id)
		require.NoError(t, err)
		require.NotEmpty(t, revs)
		assert.Equal(t, domain.RevisionDel, revs[len(revs)-1].Type)
	}

	_, err = f.members.Get(ctx, m1.ID)
	assert.NoError(t, err, "members survive a book delete")

	assert.ErrorIs(t, f.books.Delete(ctx, adminActor, b.ID), domainerrors.ErrNotFound)
}

func TestBookService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)
	f.addBook(t, "9780689845369", "The Tombs of Atuan", 1)
	f.clock.AddDays(1)
	latest := f.addBook(t, "0261103571", "The Hobbit", 1)

	page, err := f.books.Search(ctx, store.BookFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, latest.ID, page.Items[0].ID)

	page, err = f.books.Search(ctx, store.BookFilter{Query: "EARTH"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A Wizard of Earthsea", page.Items[0].Title)

	page, err = f.books.Search(ctx, store.BookFilter{Query: "nothing like this"}, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.TotalElements)

	page, err = f.books.Search(ctx, store.BookFilter{}, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)

	_, err = f.books.Search(ctx, store.BookFilter{}, 0, 10)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = f.books.Search(ctx, store.BookFilter{}, 1, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestBookService_Revisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.addBook(t, "9780553383044", "A Wizard of Earthsea", 1)

	_, err := f.books.Update(ctx, memberActor, b.ID, UpdateBookRequest{Title: ptr("Earthsea")})
	require.NoError(t, err)
	require.NoError(t, f.books.Delete(ctx, adminActor, b.ID))

	revs, err := f.books.Revisions(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, []domain.RevisionType{domain.RevisionAdd, domain.RevisionMod, domain.RevisionDel},
		[]domain.RevisionType{revs[0].Type, revs[1].Type, revs[2].Type})
	assert.Equal(t, "student@example.com", revs[1].Username)
	assert.Equal(t, "ROLE_STUDENT", revs[1].UserType)
	assert.Less(t, revs[0].Rev, revs[2].Rev)

	_, err = f.books.Revisions(ctx, 4242)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
