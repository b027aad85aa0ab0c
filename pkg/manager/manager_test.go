package manager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hrentities/internal/apitest"
	"github.com/mesh-intelligence/hrentities/internal/transport"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

func newManager(t *testing.T, opts ...Option) (*Manager, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.AddEntity(t, apitest.EmployeeMetadata)
	srv.AddEntity(t, apitest.LeaveRequestMetadata)
	tr := transport.New(transport.Config{
		BaseURL:       srv.URL,
		Version:       "v1",
		InstanceCode:  "acme",
		SecurityGroup: 1,
		Timeout:       5 * time.Second,
	}, nil)
	return New(tr, opts...), srv
}

func TestGetEntityCachesMetadata(t *testing.T) {
	m, srv := newManager(t)
	ctx := context.Background()

	_, ok := m.NewEntityFromCache("Employee")
	assert.False(t, ok)

	e1, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.MetaRequests("Employee"))

	e2, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.MetaRequests("Employee"), "second call must not refetch metadata")

	require.NoError(t, e1.Set("FirstName", "Ada"))
	v, _ := e2.Get("FirstName")
	assert.Nil(t, v, "entities built from one cache entry are independent")

	e3, ok := m.NewEntityFromCache("Employee")
	require.True(t, ok)
	assert.Equal(t, e1.FieldNames(), e3.FieldNames())
	assert.Equal(t, []string{"Employee"}, m.CachedNames())
}

func TestGetEntityCoalescesConcurrentMisses(t *testing.T) {
	m, srv := newManager(t)
	srv.SetMetaDelay(50 * time.Millisecond)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.GetEntity(context.Background(), "Employee")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.MetaRequests("Employee"))
}

func TestGetEntityUnknownPropagatesTransportError(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.GetEntity(context.Background(), "Nope")
	var terr *types.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusNotFound, terr.Status)

	_, ok := m.NewEntityFromCache("Nope")
	assert.False(t, ok, "failures are not cached")
}

func TestGetEntityEmptyMetadata(t *testing.T) {
	tr := types.TransportFunc(func(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
		return json.RawMessage("null"), nil
	})
	_, err := New(tr).GetEntity(context.Background(), "Ghost")
	assert.True(t, errors.Is(err, types.ErrNoMetadata))
}

func TestListEntities(t *testing.T) {
	m, srv := newManager(t)
	srv.AddRecord("Employee", map[string]any{"Id": 1, "FirstName": "Ada", "StartDate": "2020-01-15"})
	srv.AddRecord("Employee", map[string]any{"Id": 2, "FirstName": "Grace", "Salary": 1000.5})
	srv.AddRecord("Employee", map[string]any{"Id": 3, "FirstName": "Linus"})

	list, err := m.ListEntities(context.Background(), "Employee", ListOptions{
		Fields:   []string{"Id", "FirstName"},
		Sort:     "FirstName",
		PageSize: 2,
		Page:     1,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)

	id, _ := list[0].ID()
	assert.Equal(t, int64(1), id)
	start, _ := list[0].Field("StartDate")
	s, _ := start.StringValue()
	assert.Equal(t, "2020-01-15", s)
	salary, _ := list[1].Get("Salary")
	assert.Equal(t, 1000.5, salary)

	require.NoError(t, list[0].Set("FirstName", "Changed"))
	name, _ := list[1].Get("FirstName")
	assert.Equal(t, "Grace", name)

	q := srv.LastRequest().Query
	assert.Equal(t, "Id,FirstName", q.Get("fields"))
	assert.Equal(t, "FirstName", q.Get("sort"))
	assert.Equal(t, "2", q.Get("records"))
	assert.Equal(t, "1", q.Get("page"))
	assert.NotContains(t, q, "query")
	assert.Equal(t, 1, srv.MetaRequests("Employee"))
}

func TestListEntitiesInvalidRecord(t *testing.T) {
	m, srv := newManager(t)
	srv.AddRecord("Employee", map[string]any{"Id": "not-a-number"})

	_, err := m.ListEntities(context.Background(), "Employee", ListOptions{})
	assert.True(t, types.IsValidationError(err))
}

func TestGetEntityByID(t *testing.T) {
	m, srv := newManager(t)
	srv.AddRecord("Employee", map[string]any{"Id": 7, "FirstName": "Ada", "Gender": "F"})

	e, err := m.GetEntityByID(context.Background(), "Employee", 7)
	require.NoError(t, err)
	require.NotNil(t, e)
	g, _ := e.Field("Gender")
	l, ok := g.ValueLabel()
	assert.True(t, ok)
	assert.Equal(t, "Female", l)

	_, err = m.GetEntityByID(context.Background(), "Employee", 8)
	assert.True(t, types.IsTransportStatus(err, http.StatusNotFound))
}

func TestCreateRehydrates(t *testing.T) {
	m, srv := newManager(t)
	ctx := context.Background()

	e, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	require.NoError(t, e.Set("FirstName", "Ada"))
	require.NoError(t, e.Set("StartDate", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	created, err := m.Create(ctx, e)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotSame(t, e, created)

	id, ok := created.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1001), id)
	cd, _ := created.Field("CreatedDate")
	s, _ := cd.StringValue()
	assert.Equal(t, "2024-01-02T03:04:05.000Z", s)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &sent))
	assert.Equal(t, "2024-03-01", sent["StartDate"])
	assert.Equal(t, "Ada", sent["FirstName"])

	_, ok = e.ID()
	assert.False(t, ok, "the submitted entity is left unchanged")
}

func TestCreateEmptyResponse(t *testing.T) {
	for _, body := range []string{"null", "true", "false", "{}", ""} {
		t.Run(body, func(t *testing.T) {
			tr := types.TransportFunc(func(ctx context.Context, method, path string, b any) (json.RawMessage, error) {
				if method == types.MethodGet {
					return json.RawMessage(apitest.EmployeeMetadata), nil
				}
				return json.RawMessage(body), nil
			})
			m := New(tr)
			e, err := m.GetEntity(context.Background(), "Employee")
			require.NoError(t, err)

			created, err := m.Create(context.Background(), e)
			assert.NoError(t, err)
			assert.Nil(t, created)
		})
	}
}

func TestUpdate(t *testing.T) {
	m, srv := newManager(t)
	srv.AddRecord("Employee", map[string]any{"Id": 7, "FirstName": "Ada"})
	ctx := context.Background()

	e, err := m.GetEntityByID(ctx, "Employee", 7)
	require.NoError(t, err)
	require.NoError(t, e.Set("FirstName", "Augusta"))

	updated, err := m.Update(ctx, e)
	require.NoError(t, err)
	name, _ := updated.Get("FirstName")
	assert.Equal(t, "Augusta", name)

	req := srv.LastRequest()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/v1/entities/Employee/7", req.Path)
}

func TestUpdateAndDeleteRequireID(t *testing.T) {
	m, srv := newManager(t)
	ctx := context.Background()
	e, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	before := len(srv.Requests())

	_, err = m.Update(ctx, e)
	assert.True(t, errors.Is(err, types.ErrMissingID))
	assert.True(t, errors.Is(m.Delete(ctx, e), types.ErrMissingID))
	assert.Len(t, srv.Requests(), before, "no request is sent without an Id")
}

func TestDelete(t *testing.T) {
	m, srv := newManager(t)
	srv.AddRecord("Employee", map[string]any{"Id": 7})
	ctx := context.Background()

	e, err := m.GetEntityByID(ctx, "Employee", 7)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, e))
	assert.Empty(t, srv.Records("Employee"))

	assert.True(t, types.IsTransportStatus(m.Delete(ctx, e), http.StatusNotFound))
}

const documentMetadata = `{"Name":"Document","Label":"Document","AllowViewSecurityGroups":[1],"AllowDeleteSecurityGroups":[1],
"Fields":[{"Name":"Id","Label":"Id","Type":3,"TypeName":"key"},{"Name":"Title","Label":"Title","Type":1,"TypeName":"string"}]}`

func TestDeleteByIDWithKeyTypedID(t *testing.T) {
	m, srv := newManager(t)
	srv.AddEntity(t, documentMetadata)
	srv.AddRecord("Document", map[string]any{"Id": "42", "Title": "Handbook"})
	ctx := context.Background()

	require.NoError(t, m.DeleteByID(ctx, "Document", "42"))
	assert.Empty(t, srv.Records("Document"))
	assert.Equal(t, http.MethodDelete, srv.LastRequest().Method)
	assert.Equal(t, "/v1/entities/Document/42", srv.LastRequest().Path)
	assert.Zero(t, srv.MetaRequests("Document"), "deleting by id needs no metadata")

	assert.True(t, types.IsTransportStatus(m.DeleteByID(ctx, "Document", "42"), http.StatusNotFound))
}

func TestMetadataReturnsCopy(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	meta, err := m.Metadata(ctx, "Employee")
	require.NoError(t, err)
	want := meta.Clone()
	meta.AllowViewSecurityGroups = append(meta.AllowViewSecurityGroups[:0], 99)
	meta.Fields[0].Label = "Changed"

	again, err := m.Metadata(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, want, again)

	e, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, want.AllowViewSecurityGroups, e.Metadata().AllowViewSecurityGroups)
}

func TestTransportErrorsAreNotTranslated(t *testing.T) {
	m, srv := newManager(t)
	srv.Fail(http.MethodGet, "/entities/Employee", http.StatusServiceUnavailable)

	_, err := m.ListEntities(context.Background(), "Employee", ListOptions{})
	var terr *types.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusServiceUnavailable, terr.Status)
}

func TestSettings(t *testing.T) {
	m, srv := newManager(t)
	ctx := context.Background()
	srv.SetUserSettings(`{"theme":"dark"}`)

	doc, err := m.GetSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(doc))

	doc, err = m.GetEntitySettings(ctx, "Employee")
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = m.UpdateEntitySettings(ctx, "Employee", json.RawMessage(`{"columns":["Id","FirstName"]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["Id","FirstName"]}`, string(doc))

	doc, err = m.GetEntitySettings(ctx, "Employee")
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["Id","FirstName"]}`, string(doc))
	assert.Equal(t, http.MethodGet, srv.LastRequest().Method)
}

func TestForgetAndPurge(t *testing.T) {
	m, srv := newManager(t)
	ctx := context.Background()

	_, err := m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	_, err = m.GetEntity(ctx, "LeaveRequest")
	require.NoError(t, err)

	require.NoError(t, m.Forget(ctx, "Employee"))
	_, err = m.GetEntity(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.MetaRequests("Employee"))
	assert.Equal(t, []string{"Employee", "LeaveRequest"}, m.CachedNames())

	m.Purge()
	assert.Empty(t, m.CachedNames())
}
