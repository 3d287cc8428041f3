package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/monacohq/graphsense-REST/app/query/types"
	"github.com/monacohq/graphsense-REST/pkg/currency"
	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
	"github.com/monacohq/graphsense-REST/pkg/rates"
	"github.com/monacohq/graphsense-REST/pkg/search"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const coin = 100_000_000

// stubStore is an in-memory graph.Store. Methods not overridden panic through
// the nil embedded interface.
type stubStore struct {
	graph.Store
	addresses   map[string]graphmodels.AddressRow
	clusters    map[uint64]graphmodels.ClusterRow
	membership  map[string]graphmodels.ClusterID
	clusterTags map[uint64][]graphmodels.Tag
	addressRels []graphmodels.RelationRow
	clusterRels []graphmodels.RelationRow
	txs         map[string][]graphmodels.AddressTransactionRow
	blocks      []graphmodels.Block
	blockTxs    map[uint64][]graphmodels.BlockTransactionRow
	rawTxs      []graphmodels.TransactionRow
	stats       graphmodels.Statistics
	err         error
}

func newStubStore() *stubStore {
	return &stubStore{
		addresses:   map[string]graphmodels.AddressRow{},
		clusters:    map[uint64]graphmodels.ClusterRow{},
		membership:  map[string]graphmodels.ClusterID{},
		clusterTags: map[uint64][]graphmodels.Tag{},
		txs:         map[string][]graphmodels.AddressTransactionRow{},
		blockTxs:    map[uint64][]graphmodels.BlockTransactionRow{},
	}
}

func (s *stubStore) Ping(context.Context) error { return s.err }

func (s *stubStore) Address(_ context.Context, address string) (*graphmodels.AddressRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	row, ok := s.addresses[address]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return &row, nil
}

func (s *stubStore) AddressTags(context.Context, string) ([]graphmodels.Tag, error) {
	return nil, s.err
}

func (s *stubStore) AddressCluster(_ context.Context, address string) (graphmodels.ClusterID, error) {
	if s.err != nil {
		return graphmodels.Unresolved, s.err
	}
	return s.membership[address], nil
}

func (s *stubStore) Cluster(_ context.Context, id uint64) (*graphmodels.ClusterRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	row, ok := s.clusters[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return &row, nil
}

func (s *stubStore) ClusterTags(_ context.Context, id uint64) ([]graphmodels.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.clusterTags[id], nil
}

func (s *stubStore) AddressRelations(_ context.Context, address string, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error) {
	if s.err != nil {
		return paging.Page[graphmodels.RelationRow]{}, s.err
	}
	return pageOf(edgesOf(s.addressRels, address, dir), q)
}

func (s *stubStore) ClusterRelations(_ context.Context, cluster uint64, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error) {
	if s.err != nil {
		return paging.Page[graphmodels.RelationRow]{}, s.err
	}
	return pageOf(edgesOf(s.clusterRels, fmt.Sprint(cluster), dir), q)
}

func (s *stubStore) AddressTransactions(_ context.Context, address string, q paging.Query) (paging.Page[graphmodels.AddressTransactionRow], error) {
	if s.err != nil {
		return paging.Page[graphmodels.AddressTransactionRow]{}, s.err
	}
	return pageOf(s.txs[address], q)
}

func (s *stubStore) Statistics(context.Context) (*graphmodels.Statistics, error) {
	if s.err != nil {
		return nil, s.err
	}
	stats := s.stats
	return &stats, nil
}

func (s *stubStore) Block(_ context.Context, height uint64) (*graphmodels.Block, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, b := range s.blocks {
		if b.Height == height {
			return &b, nil
		}
	}
	return nil, graph.ErrNotFound
}

func (s *stubStore) Blocks(_ context.Context, q paging.Query) (paging.Page[graphmodels.Block], error) {
	if s.err != nil {
		return paging.Page[graphmodels.Block]{}, s.err
	}
	return pageOf(s.blocks, q)
}

func (s *stubStore) BlockTransactions(_ context.Context, height uint64) ([]graphmodels.BlockTransactionRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	rows, ok := s.blockTxs[height]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return rows, nil
}

func (s *stubStore) Transaction(_ context.Context, txHash string) (*graphmodels.TransactionRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, tx := range s.rawTxs {
		if tx.TxHash == txHash {
			return &tx, nil
		}
	}
	return nil, graph.ErrNotFound
}

func (s *stubStore) Transactions(_ context.Context, q paging.Query) (paging.Page[graphmodels.TransactionRow], error) {
	if s.err != nil {
		return paging.Page[graphmodels.TransactionRow]{}, s.err
	}
	return pageOf(s.rawTxs, q)
}

func (s *stubStore) SearchAddresses(_ context.Context, expression string, limit int) ([]string, error) {
	out := []string{}
	for addr := range s.addresses {
		if strings.HasPrefix(addr, expression) {
			out = append(out, addr)
		}
	}
	sort.Strings(out)
	return out[:min(limit, len(out))], s.err
}

func (s *stubStore) SearchTransactions(_ context.Context, expression string, limit int) ([]string, error) {
	out := []string{}
	for _, tx := range s.rawTxs {
		if strings.HasPrefix(tx.TxHash, expression) {
			out = append(out, tx.TxHash)
		}
	}
	return out[:min(limit, len(out))], s.err
}

func edgesOf(rels []graphmodels.RelationRow, key string, dir graphmodels.Direction) []graphmodels.RelationRow {
	var out []graphmodels.RelationRow
	for _, r := range rels {
		if (dir.IsOutgoing() && r.Src == key) || (!dir.IsOutgoing() && r.Dst == key) {
			out = append(out, r)
		}
	}
	return out
}

func pageOf[T any](rows []T, q paging.Query) (paging.Page[T], error) {
	w, done, err := paging.Plan(q)
	if err != nil || done || w.Offset >= uint64(len(rows)) {
		return paging.Page[T]{}, err
	}
	end := min(int(w.Offset)+w.Fetch(), len(rows))
	return paging.Finish(w, rows[w.Offset:end]), nil
}

func clusterRow(id uint64) graphmodels.ClusterRow {
	return graphmodels.ClusterRow{Cluster: id, NoAddresses: 1, TotalReceived: 2 * coin, TotalSpent: coin}
}

// setupTestController serves one currency, "btc", backed by st. Rates exist for
// heights 0..2; the last one is EUR 100 and USD 200.
func setupTestController(t *testing.T, st *stubStore) http.Handler {
	t.Helper()

	snapshot, err := rates.NewSnapshot([]graphmodels.Rate{
		{Height: 0, EUR: 1, USD: 2},
		{Height: 1, EUR: 10, USD: 20},
		{Height: 2, EUR: 100, USD: 200},
	})
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	currencies := xsync.NewMap[string, *currency.Service]()
	currencies.Store("btc", &currency.Service{Name: "btc", Store: st, Rates: snapshot, Logger: logger})

	engine := search.NewEngine(search.Config{MaxDepth: 7, MaxBreadth: 100, Parallelism: 1}, zap.NewNop())
	t.Cleanup(engine.Close)

	c := NewController(&types.App{
		Currencies: currencies,
		Configured: []string{"btc", "eth"},
		Engine:     engine,
		Logger:     logger,
	})
	router, err := c.NewRouter()
	require.NoError(t, err)
	return WithCORS(router)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestUnknownCurrency(t *testing.T) {
	h := setupTestController(t, newStubStore())

	for _, target := range []string{"/eth/address/1abc", "/eth/cluster/5", "/eth/exchangerates"} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "currency not available", decode[map[string]string](t, rec)["message"])
	}
}

func TestHandleAddress(t *testing.T) {
	st := newStubStore()
	st.addresses["1abc"] = graphmodels.AddressRow{Address: "1abc", AddressPrefix: "1abc", TotalReceived: 3 * coin, TotalSpent: coin}
	h := setupTestController(t, st)

	rec := get(t, h, "/BTC/address/1abc")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	addr := decode[graphmodels.Address](t, rec)
	assert.Equal(t, "1abc", addr.Address)
	assert.Equal(t, int64(2*coin), addr.Balance.Value)
	assert.Equal(t, 200.0, addr.Balance.EUR)
	assert.Equal(t, 400.0, addr.Balance.USD)

	rec = get(t, h, "/btc/address/1missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "address not found", decode[map[string]string](t, rec)["message"])
}

func TestHandleAddressCluster(t *testing.T) {
	st := newStubStore()
	st.membership["1abc"] = graphmodels.ResolvedCluster(5)
	st.clusters[5] = clusterRow(5)
	st.clusterTags[5] = []graphmodels.Tag{{Entity: "5", Label: "Some Exchange", Category: "exchange"}}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/address/1abc/cluster_with_tags")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cluster := decode[graphmodels.Cluster](t, rec)
	assert.Equal(t, uint64(5), cluster.Cluster)
	require.Len(t, cluster.Tags, 1)
	assert.Equal(t, "exchange", cluster.Tags[0].Category)

	rec = get(t, h, "/btc/address/1abc/implicitTags")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]graphmodels.Tag](t, rec), 1)

	// not clustered
	rec = get(t, h, "/btc/address/1lonely/cluster")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/btc/address/1lonely/implicitTags")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleAddressNeighborsPaging(t *testing.T) {
	st := newStubStore()
	st.addressRels = []graphmodels.RelationRow{
		{Src: "1abc", Dst: "1def", NoTransactions: 1, EstimatedValue: coin},
		{Src: "1abc", Dst: "1ghi", NoTransactions: 2, EstimatedValue: 2 * coin},
		{Src: "1xyz", Dst: "1abc", NoTransactions: 3, EstimatedValue: 3 * coin},
	}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/address/1abc/neighbors?direction=out&pagesize=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[neighborsResponse](t, rec)
	require.Len(t, first.Neighbors, 1)
	assert.Equal(t, "1def", first.Neighbors[0].Target)
	assert.Equal(t, 100.0, first.Neighbors[0].EstimatedValue.EUR)
	require.NotNil(t, first.NextPage)

	rec = get(t, h, "/btc/address/1abc/neighbors?direction=out&pagesize=1&page="+*first.NextPage)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[neighborsResponse](t, rec)
	require.Len(t, second.Neighbors, 1)
	assert.Equal(t, "1ghi", second.Neighbors[0].Target)
	assert.Nil(t, second.NextPage)

	rec = get(t, h, "/btc/address/1abc/neighbors?direction=in")
	require.Equal(t, http.StatusOK, rec.Code)
	incoming := decode[neighborsResponse](t, rec)
	require.Len(t, incoming.Neighbors, 1)
	assert.Equal(t, "1xyz", incoming.Neighbors[0].Source)

	// limit caps the total across pages
	rec = get(t, h, "/btc/address/1abc/neighbors?direction=out&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	limited := decode[neighborsResponse](t, rec)
	assert.Len(t, limited.Neighbors, 1)
	assert.Nil(t, limited.NextPage)
}

func TestHandleAddressTransactions(t *testing.T) {
	st := newStubStore()
	st.txs["1abc"] = []graphmodels.AddressTransactionRow{
		{Address: "1abc", TxHash: "ab", Height: 1, Value: coin},
		{Address: "1abc", TxHash: "cd", Height: 9, Value: coin},
	}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/address/1abc/transactions")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[transactionsResponse](t, rec)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, 10.0, resp.Transactions[0].Value.EUR, "valued at its own height")
	assert.Equal(t, 100.0, resp.Transactions[1].Value.EUR, "heights past the snapshot use the newest rate")
	assert.Nil(t, resp.NextPage)

	rec = get(t, h, "/btc/address/1none/transactions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nextPage":null,"transactions":[]}`, rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	h := setupTestController(t, newStubStore())

	tests := []struct {
		name    string
		target  string
		message string
	}{
		{"non numeric cluster", "/btc/cluster/abc", "invalid cluster id"},
		{"negative cluster", "/btc/cluster/-5/tags", "invalid cluster id"},
		{"missing direction", "/btc/cluster/5/neighbors", "direction value missing"},
		{"bad direction", "/btc/address/1abc/neighbors?direction=sideways", `invalid direction value "sideways" - has to be either in or out`},
		{"bad pagesize", "/btc/cluster/5/addresses?pagesize=0", "invalid pagesize"},
		{"bad limit", "/btc/cluster/5/addresses?limit=-1", "invalid limit"},
		{"bad page", "/btc/address/1abc/transactions?page=zz", "invalid page"},
		{"bad rates limit", "/btc/exchangerates?limit=abc", "invalid limit"},
		{"bad rates offset", "/btc/exchangerates?offset=-1", "invalid offset"},
		{"bad breadth", "/btc/cluster/5/search?direction=out&breadth=x", "invalid breadth"},
		{"bad height", "/btc/block/abc", "invalid block height"},
		{"negative height", "/btc/block/-1/transactions", "invalid block height"},
		{"non hex tx", "/btc/tx/xyz1", "transaction hash is not hex"},
		{"missing expression", "/btc/search", "expression parameter not provided"},
		{"bad search limit", "/btc/search?q=1abcd&limit=0", "invalid limit"},
		{"bad egonet direction", "/btc/cluster/5/egonet?direction=up", `invalid direction value "up" - has to be either in or out`},
		{"bad egonet limit", "/btc/address/1abc/egonet?limit=x", "invalid limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[map[string]string](t, rec)["message"])
		})
	}
}

func TestStoreFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", fmt.Errorf("cluster: %w: %w", graph.ErrStoreUnavailable, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"malformed", fmt.Errorf("cluster 5: %w", graph.ErrMalformedRow), http.StatusInternalServerError},
		{"not found", graph.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStubStore()
			st.err = tt.err
			h := setupTestController(t, st)

			for _, target := range []string{"/btc/cluster/5", "/btc/cluster/5/search?direction=out&category=exchange"} {
				rec := get(t, h, target)
				assert.Equal(t, tt.status, rec.Code, target)
			}
		})
	}
}

func TestHandleClusterSearch(t *testing.T) {
	st := newStubStore()
	st.clusterRels = []graphmodels.RelationRow{
		{Src: "5", Dst: "12", NoTransactions: 1, EstimatedValue: coin},
		{Src: "5", Dst: "7", NoTransactions: 1, EstimatedValue: coin},
		{Src: "5", Dst: "9", NoTransactions: 1, EstimatedValue: coin},
	}
	for _, id := range []uint64{5, 7, 9, 12} {
		st.clusters[id] = clusterRow(id)
	}
	st.clusterTags[9] = []graphmodels.Tag{{Entity: "9", Label: "Some Exchange", Category: "exchange"}}
	st.membership["1abc"] = graphmodels.ResolvedCluster(7)
	h := setupTestController(t, st)

	t.Run("category", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&category=exchange&breadth=3&depth=1")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[searchResponse](t, rec)
		require.Len(t, resp.Paths, 1)
		assert.Equal(t, uint64(9), resp.Paths[0].Node.Cluster)
		assert.Equal(t, "9", resp.Paths[0].Relation.Target)
		assert.Empty(t, resp.Paths[0].MatchingAddresses)
		assert.Nil(t, resp.Paths[0].Paths)
	})

	t.Run("depth zero", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&category=exchange&depth=0")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[searchResponse](t, rec).Paths)
	})

	t.Run("candidate addresses", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&category=mixer&addresses=1abc,1unknown&depth=1")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[searchResponse](t, rec)
		require.Len(t, resp.Paths, 1)
		assert.Equal(t, uint64(7), resp.Paths[0].Node.Cluster)
		assert.Equal(t, []string{"1abc", "1unknown"}, resp.Addresses)
	})

	t.Run("untagged nodes carry empty tags", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&category=mixer&addresses=1abc&depth=1")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var raw struct {
			Paths []struct {
				Node map[string]json.RawMessage `json:"node"`
			} `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		require.Len(t, raw.Paths, 1)
		require.Contains(t, raw.Paths[0].Node, "tags")
		assert.JSONEq(t, `[]`, string(raw.Paths[0].Node["tags"]))
	})

	t.Run("depth above maximum", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&depth=8")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("breadth below one", func(t *testing.T) {
		rec := get(t, h, "/btc/cluster/5/search?direction=out&breadth=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleClusterSearch_MissingNeighborRecord(t *testing.T) {
	st := newStubStore()
	st.clusterRels = []graphmodels.RelationRow{
		{Src: "1", Dst: "2", NoTransactions: 1},
		{Src: "2", Dst: "3", NoTransactions: 1},
	}
	st.clusters[1] = clusterRow(1)
	st.clusters[3] = clusterRow(3)
	st.clusterTags[3] = []graphmodels.Tag{{Entity: "3", Label: "Some Exchange", Category: "exchange"}}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/cluster/1/search?direction=out&category=exchange&breadth=2&depth=2")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "cluster not found", decode[map[string]string](t, rec)["message"])
}

func TestHandleNeighborProperties(t *testing.T) {
	st := newStubStore()
	st.clusterRels = []graphmodels.RelationRow{
		{Src: "5", Dst: "9", NoTransactions: 4, EstimatedValue: coin, NeighborReceived: 3 * coin, NeighborSpent: coin},
	}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/cluster/5/neighbors?direction=out")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[neighborsResponse](t, rec)
	require.Len(t, resp.Neighbors, 1)
	n := resp.Neighbors[0]
	assert.Equal(t, "9", n.ID)
	assert.Equal(t, graphmodels.NodeCluster, n.NodeType)
	assert.Equal(t, int64(2*coin), n.Balance.Value)
	assert.Equal(t, 300.0, n.Received.EUR)

	rec = get(t, h, "/btc/cluster/9/neighbors?direction=in")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", decode[neighborsResponse](t, rec).Neighbors[0].ID)
}

func TestHandleEgonet(t *testing.T) {
	st := newStubStore()
	st.clusters[5] = clusterRow(5)
	st.addresses["1abc"] = graphmodels.AddressRow{Address: "1abc", TotalReceived: 3 * coin, TotalSpent: coin}
	st.clusterRels = []graphmodels.RelationRow{
		{Src: "5", Dst: "9", NoTransactions: 1, NeighborReceived: coin},
		{Src: "5", Dst: "7", NoTransactions: 2},
		{Src: "3", Dst: "5", NoTransactions: 3},
	}
	st.addressRels = []graphmodels.RelationRow{
		{Src: "1abc", Dst: "1def", NoTransactions: 1},
	}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/cluster/5/egonet")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[graphmodels.Egonet](t, rec)
	assert.Equal(t, "5", g.FocusNode)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 3)
	assert.Equal(t, int64(coin), g.Nodes[0].Balance)

	rec = get(t, h, "/btc/cluster/5/egonet?direction=out&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	g = decode[graphmodels.Egonet](t, rec)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "9", g.Edges[0].Target)
	assert.Equal(t, int64(coin), g.Nodes[1].Received)

	rec = get(t, h, "/btc/address/1abc/egonet?direction=in")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"focusNode":"1abc","nodes":[{"id":"1abc","nodeType":"address","balance":200000000,"received":300000000}],"edges":[]}`, rec.Body.String())

	rec = get(t, h, "/btc/cluster/404/egonet")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBlocks(t *testing.T) {
	st := newStubStore()
	st.blocks = []graphmodels.Block{
		{BlockHash: "00cc", Height: 2, NoTransactions: 1},
		{BlockHash: "00bb", Height: 1, NoTransactions: 2},
	}
	st.blockTxs[1] = []graphmodels.BlockTransactionRow{
		{Height: 1, TxIndex: 0, TxHash: "aa", NoOutputs: 1, TotalOutput: coin},
		{Height: 1, TxIndex: 1, TxHash: "bb", NoInputs: 1, NoOutputs: 1, TotalInput: coin, TotalOutput: coin},
	}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/block/1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"blockHash":"00bb","height":1,"noTransactions":2,"timestamp":0}`, rec.Body.String())

	rec = get(t, h, "/btc/block/1/transactions")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	txs := decode[graphmodels.BlockTransactions](t, rec)
	require.Len(t, txs.Txs, 2)
	assert.Equal(t, 10.0, txs.Txs[0].TotalOutput.EUR, "valued at the block height")

	rec = get(t, h, "/btc/blocks?pagesize=1")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[blocksResponse](t, rec)
	require.Len(t, page.Blocks, 1)
	assert.Equal(t, uint64(2), page.Blocks[0].Height)
	assert.NotNil(t, page.NextPage)

	for _, target := range []string{"/btc/block/3", "/btc/block/3/transactions", "/btc/block/0"} {
		rec = get(t, h, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "block not found", decode[map[string]string](t, rec)["message"])
	}
}

func TestHandleTransaction(t *testing.T) {
	st := newStubStore()
	st.rawTxs = []graphmodels.TransactionRow{{
		TxPrefix:        "ab12c",
		TxHash:          "ab12cdef",
		Height:          1,
		Coinbase:        true,
		TotalOutput:     coin,
		OutputAddresses: []string{"1abc"},
		OutputValues:    []int64{coin},
	}}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/tx/AB12CDEF")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx := decode[graphmodels.Transaction](t, rec)
	assert.True(t, tx.Coinbase)
	assert.Empty(t, tx.Inputs)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, 10.0, tx.Outputs[0].Value.EUR)

	rec = get(t, h, "/btc/tx/ffff")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "transaction not found", decode[map[string]string](t, rec)["message"])

	rec = get(t, h, "/btc/transactions")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[rawTransactionsResponse](t, rec)
	require.Len(t, list.Transactions, 1)
	assert.Nil(t, list.NextPage)
}

func TestHandleSearch(t *testing.T) {
	st := newStubStore()
	st.addresses["1abcde"] = graphmodels.AddressRow{Address: "1abcde"}
	st.addresses["1abcdf"] = graphmodels.AddressRow{Address: "1abcdf"}
	st.rawTxs = []graphmodels.TransactionRow{{TxHash: "1abcdef0"}, {TxHash: "abcdef01"}}
	h := setupTestController(t, st)

	rec := get(t, h, "/btc/search?q=1abcd")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"addresses":["1abcde","1abcdf"],"transactions":["1abcdef0"]}`, rec.Body.String())

	rec = get(t, h, "/btc/search?q=1abcd&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[graphmodels.SearchResult](t, rec).Addresses, 1)

	rec = get(t, h, "/btc/search?q=1ab")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"addresses":[],"transactions":[]}`, rec.Body.String())
}

func TestHandleExchangeRates(t *testing.T) {
	h := setupTestController(t, newStubStore())

	rec := get(t, h, "/btc/exchangerates?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[exchangeRatesResponse](t, rec)
	require.Len(t, first.ExchangeRates, 2)
	assert.Equal(t, uint64(2), first.ExchangeRates[0].Height)
	assert.Equal(t, uint64(1), first.ExchangeRates[1].Height)
	require.NotNil(t, first.NextOffset)
	assert.Equal(t, 1, *first.NextOffset)

	rec = get(t, h, "/btc/exchangerates?limit=2&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[exchangeRatesResponse](t, rec)
	require.Len(t, second.ExchangeRates, 1)
	assert.Equal(t, uint64(0), second.ExchangeRates[0].Height)
	assert.Nil(t, second.NextOffset)
}

func TestHandleStatistics(t *testing.T) {
	st := newStubStore()
	st.stats = graphmodels.Statistics{NoBlocks: 3, NoAddresses: 10}
	h := setupTestController(t, st)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]graphmodels.Statistics](t, rec)
	require.Contains(t, stats, "btc")
	assert.Equal(t, uint64(2), stats["btc"].LastHeight)
	assert.Equal(t, uint64(10), stats["btc"].NoAddresses)
}

func TestHandleHealth(t *testing.T) {
	st := newStubStore()
	h := setupTestController(t, st)

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"btc"}, resp.Currencies)
	assert.Equal(t, []string{"btc", "eth"}, resp.Configured)
	assert.Equal(t, "disabled", resp.Cache)

	st.err = graph.ErrStoreUnavailable
	rec = get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "errored", decode[healthResponse](t, rec).Status)
}

func TestCORSPreflight(t *testing.T) {
	h := setupTestController(t, newStubStore())

	req := httptest.NewRequest(http.MethodOptions, "/btc/cluster/5", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParsePageQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		pageSize int
		limit    *int
		wantErr  error
	}{
		{name: "defaults", query: ""},
		{name: "pagesize", query: "pagesize=25", pageSize: 25},
		{name: "pagesize capped", query: "pagesize=5000", pageSize: maxPageSize},
		{name: "limit zero", query: "limit=0", limit: intPtr(0)},
		{name: "limit", query: "limit=7", limit: intPtr(7)},
		{name: "bad pagesize", query: "pagesize=abc", wantErr: errInvalidPageSize},
		{name: "bad limit", query: "limit=-3", wantErr: errInvalidLimit},
		{name: "bad page", query: "page=0xff", wantErr: errInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			q, err := parsePageQuery(r)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pageSize, q.PageSize)
			assert.Equal(t, tt.limit, q.Limit)
			assert.Nil(t, q.Cursor)
		})
	}
}

func intPtr(n int) *int { return &n }
