package columns

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/mocks"
)

func storages(t *testing.T) map[string]func() Storage {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "columns")
	mr := miniredis.RunT(t)
	client := adapter.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	return map[string]func() Storage{
		"file": func() Storage {
			return NewFileStorage(adapter.NewFileSystem(), ClientDir(dir, "client-1"))
		},
		"redis": func() Storage {
			return NewRedisStorage(client, ClientPrefix("scrutiny", "client-1"), 0)
		},
	}
}

func TestOverlay_PersistsAcrossLoads(t *testing.T) {
	for name, open := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			o := NewOverlay(open(), domain.Table2, adapter.NewJSON())
			require.NoError(t, o.Load(ctx))
			assert.Empty(t, o.Columns())

			_, err := o.AddColumn(ctx, "  Remarks ", domain.AnchorParticulars)
			require.NoError(t, err)
			_, err = o.AddColumn(ctx, "Page", domain.AnchorDocNo)
			require.NoError(t, err)
			require.NoError(t, o.SetValue(ctx, "deed-1", "Remarks", "verified"))
			require.NoError(t, o.SetValue(ctx, "deed-2", "Page", "14"))

			reloaded := NewOverlay(open(), domain.Table2, adapter.NewJSON())
			require.NoError(t, reloaded.Load(ctx))
			assert.Equal(t, []domain.CustomColumn{
				{Name: "Remarks", Position: domain.AnchorParticulars},
				{Name: "Page", Position: domain.AnchorDocNo},
			}, reloaded.Columns())
			assert.Equal(t, "verified", reloaded.Value("deed-1", "Remarks"))
			assert.Equal(t, "14", reloaded.Value("deed-2", "Page"))

			// tables do not share columns
			other := NewOverlay(open(), domain.Table3, adapter.NewJSON())
			require.NoError(t, other.Load(ctx))
			assert.Empty(t, other.Columns())
		})
	}
}

func TestOverlay_AddColumnValidation(t *testing.T) {
	ctx := context.Background()
	o := NewOverlay(NewRedisStorage(adapter.NewRedisClient(miniredis.RunT(t).Addr(), "", 0), "test", 0), domain.TablePrimary, adapter.NewJSON())

	_, err := o.AddColumn(ctx, "   ", domain.AnchorSerial)
	assert.ErrorIs(t, err, domain.ErrColumnNameRequired)
	assert.Equal(t, "Column name cannot be empty", err.Error())

	_, err = o.AddColumn(ctx, "Remarks", domain.ColumnAnchor("footer"))
	assert.ErrorIs(t, err, domain.ErrInvalidColumnPosition)

	_, err = o.AddColumn(ctx, "Remarks", domain.AnchorSerial)
	require.NoError(t, err)

	_, err = o.AddColumn(ctx, " Remarks", domain.AnchorDate)
	assert.ErrorIs(t, err, domain.ErrColumnExists)
	assert.Len(t, o.Columns(), 1)

	err = o.SetValue(ctx, "deed-1", "Unknown", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOverlay_RemoveColumnDropsValues(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	storage := NewRedisStorage(adapter.NewRedisClient(mr.Addr(), "", 0), "scrutiny:client:c1", 0)
	o := NewOverlay(storage, domain.TablePrimary, adapter.NewJSON())

	_, err := o.AddColumn(ctx, "Remarks", domain.AnchorNature)
	require.NoError(t, err)
	_, err = o.AddColumn(ctx, "Page", domain.AnchorNature)
	require.NoError(t, err)
	require.NoError(t, o.SetValue(ctx, "deed-1", "Remarks", "verified"))
	require.NoError(t, o.SetValue(ctx, "deed-1", "Page", "3"))

	assert.Len(t, o.ColumnsAfter(domain.AnchorNature), 2)
	assert.Empty(t, o.ColumnsAfter(domain.AnchorDate))

	require.NoError(t, o.RemoveColumn(ctx, "Remarks"))
	require.NoError(t, o.RemoveColumn(ctx, "Missing"))

	assert.Equal(t, []domain.CustomColumn{{Name: "Page", Position: domain.AnchorNature}}, o.Columns())
	assert.Equal(t, "", o.Value("deed-1", "Remarks"))
	assert.Equal(t, map[string]map[string]string{"deed-1": {"Page": "3"}}, o.Values())

	raw, err := mr.Get("scrutiny:client:c1:customColumnData_table")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deed-1":{"Page":"3"}}`, raw)
	assert.True(t, mr.Exists("scrutiny:client:c1:customColumns_table"))
}

func TestOverlay_FailedSaveKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fsMock := mocks.NewMockFileSystem(ctrl)
	fsMock.EXPECT().MkdirAll("clients/c1", fs.FileMode(0750)).Return(nil)
	fsMock.EXPECT().WriteFile("clients/c1/customColumns_table.json", gomock.Any(), fs.FileMode(0600)).
		Return(errors.New("disk full"))

	o := NewOverlay(NewFileStorage(fsMock, "clients/c1"), domain.TablePrimary, adapter.NewJSON())
	_, err := o.AddColumn(context.Background(), "Remarks", domain.AnchorSerial)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, o.Columns())
}

func TestOverlay_LoadErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	redisMock := mocks.NewMockRedisClient(ctrl)
	redisMock.EXPECT().Get(gomock.Any(), "p:customColumns_table2").Return(nil, errors.New("connection refused"))

	o := NewOverlay(NewRedisStorage(redisMock, "p", 0), domain.Table2, adapter.NewJSON())
	assert.ErrorContains(t, o.Load(context.Background()), "connection refused")

	jsonMock := mocks.NewMockJSON(ctrl)
	redisMock.EXPECT().Get(gomock.Any(), "p:customColumns_table2").Return([]byte(`[`), nil)
	jsonMock.EXPECT().Unmarshal([]byte(`[`), gomock.Any()).Return(errors.New("unexpected end of JSON input"))

	o = NewOverlay(NewRedisStorage(redisMock, "p", 0), domain.Table2, jsonMock)
	assert.ErrorContains(t, o.Load(context.Background()), "failed to decode customColumns_table2")
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFileStorage(adapter.NewFileSystem(), ClientDir(root, "../escape"))

	data, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, "customColumns_table", []byte(`[]`)))
	data, err = s.Load(ctx, "customColumns_table")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)

	// the client id cannot leave the root
	assert.Equal(t, filepath.Join(root, "___escape"), ClientDir(root, "../escape"))

	require.NoError(t, s.Delete(ctx, "customColumns_table"))
	require.NoError(t, s.Delete(ctx, "customColumns_table"))
}

func TestRedisStorage_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisStorage(adapter.NewRedisClient(mr.Addr(), "", 0), "p", time.Hour)

	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	assert.Equal(t, time.Hour, mr.TTL("p:k"))

	mr.FastForward(2 * time.Hour)
	data, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("p:k"))
}
