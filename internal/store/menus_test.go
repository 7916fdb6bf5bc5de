package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu_CreateUpdateFind(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tmpl := createTestTemplate(t, s, "default")
	root := createTestPage(t, s, "/", tmpl.ID, nil)

	m := &Menu{Name: "main", Kind: MenuAuto}
	require.NoError(t, s.CreateMenu(ctx, m))

	m.StartPageID = &root.ID
	require.NoError(t, s.UpdateMenu(ctx, m))

	found, err := s.FindMenuByName(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, MenuAuto, found.Kind)
	require.NotNil(t, found.StartPageID)
	assert.Equal(t, root.ID, *found.StartPageID)

	menus, err := s.ListMenus(ctx)
	require.NoError(t, err)
	assert.Len(t, menus, 1)
}

func TestMenu_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.True(t, IsValidation(s.CreateMenu(ctx, &Menu{Kind: MenuStatic})))
	assert.True(t, IsValidation(s.CreateMenu(ctx, &Menu{Name: "main", Kind: "dynamic"})))

	_, err := s.FindMenuByName(ctx, "main")
	assert.True(t, IsNotFound(err))
}

func TestReplaceMenuItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tmpl := createTestTemplate(t, s, "default")
	about := createTestPage(t, s, "/about", tmpl.ID, nil)

	m := &Menu{Name: "footer", Kind: MenuStatic}
	require.NoError(t, s.CreateMenu(ctx, m))

	require.NoError(t, s.ReplaceMenuItems(ctx, m.ID, []MenuItem{
		{Text: "Old", URL: "https://old.example.com"},
	}))
	require.NoError(t, s.ReplaceMenuItems(ctx, m.ID, []MenuItem{
		{Text: "About", PageID: &about.ID},
		{Text: "Docs", URL: "https://docs.example.com"},
	}))

	items, err := s.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "About", items[0].Text)
	assert.Equal(t, 0, items[0].Position)
	require.NotNil(t, items[0].PageID)
	assert.Equal(t, about.ID, *items[0].PageID)
	assert.Equal(t, "Docs", items[1].Text)
	assert.Equal(t, "https://docs.example.com", items[1].URL)
	assert.Nil(t, items[1].PageID)
}

func TestReplaceMenuItems_RollsBackOnInvalidItem(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := &Menu{Name: "footer", Kind: MenuStatic}
	require.NoError(t, s.CreateMenu(ctx, m))
	require.NoError(t, s.ReplaceMenuItems(ctx, m.ID, []MenuItem{{Text: "Keep", URL: "/keep"}}))

	err := s.ReplaceMenuItems(ctx, m.ID, []MenuItem{{Text: "New", URL: "/new"}, {Text: ""}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	items, err := s.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Keep", items[0].Text)
}

func TestGenerateAutoMenuItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tmpl := createTestTemplate(t, s, "default")
	root := createTestPage(t, s, "/", tmpl.ID, nil)
	createTestPage(t, s, "/team", tmpl.ID, &root.ID)
	createTestPage(t, s, "/about", tmpl.ID, &root.ID)

	m := &Menu{Name: "main", Kind: MenuAuto, StartPageID: &root.ID}
	require.NoError(t, s.CreateMenu(ctx, m))
	require.NoError(t, s.GenerateAutoMenuItems(ctx, m))

	items, err := s.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Page /about", items[0].Text)
	assert.Equal(t, "Page /team", items[1].Text)
}

func TestGenerateAutoMenuItems_RejectsStatic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := &Menu{Name: "footer", Kind: MenuStatic}
	require.NoError(t, s.CreateMenu(ctx, m))
	assert.Error(t, s.GenerateAutoMenuItems(ctx, m))
}

func TestCreateMenuWithItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := &Menu{Name: "footer", Kind: MenuStatic}
	require.NoError(t, s.CreateMenuWithItems(ctx, m, []MenuItem{{Text: "Docs", URL: "https://docs.example.com"}}))
	assert.NotZero(t, m.ID)

	items, err := s.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Docs", items[0].Text)
}

func TestCreateMenuWithItems_NothingWrittenOnInvalidItem(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := &Menu{Name: "footer", Kind: MenuStatic}
	err := s.CreateMenuWithItems(ctx, m, []MenuItem{{Text: "Docs"}, {Text: "  "}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Zero(t, m.ID)

	_, err = s.FindMenuByName(ctx, "footer")
	assert.True(t, IsNotFound(err))
}

func TestDeleteMenu(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := &Menu{Name: "footer", Kind: MenuStatic}
	require.NoError(t, s.CreateMenuWithItems(ctx, m, []MenuItem{{Text: "Docs"}}))
	require.NoError(t, s.DeleteMenu(ctx, m.ID))

	_, err := s.FindMenuByName(ctx, "footer")
	assert.True(t, IsNotFound(err))
	items, err := s.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.True(t, IsNotFound(s.DeleteMenu(ctx, m.ID)))
}
