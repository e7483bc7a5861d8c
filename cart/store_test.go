package cart

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"vermilion/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	saved []byte
	fail  error
}

func (m *memPersister) Save(items []models.CartItem) error {
	if m.fail != nil {
		return m.fail
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	m.saved = data
	return nil
}

func (m *memPersister) Clear() error {
	if m.fail != nil {
		return m.fail
	}
	m.saved = nil
	return nil
}

func (m *memPersister) Load() ([]models.CartItem, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	if m.saved == nil {
		return nil, nil
	}
	var items []models.CartItem
	if err := json.Unmarshal(m.saved, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func lehenga(qty int) models.CartItem {
	return models.CartItem{
		ProductID:   "prod-1",
		Name:        "Scarlet Lehenga",
		SKU:         "LH-001",
		Price:       120.50,
		Quantity:    qty,
		MaxQuantity: 5,
	}
}

func TestAddItemMergesByIdentity(t *testing.T) {
	s := NewStore(nil)

	first, err := s.AddItem(lehenga(1))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	_, err = s.AddItem(lehenga(2))
	require.NoError(t, err)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, first.ID, items[0].ID)
}

func TestAddItemCapacityLeavesStoreUnchanged(t *testing.T) {
	s := NewStore(nil)

	_, err := s.AddItem(lehenga(4))
	require.NoError(t, err)

	_, err = s.AddItem(lehenga(2))
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Limit)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestAddItemRejectsOverCapacityInsert(t *testing.T) {
	s := NewStore(nil)

	_, err := s.AddItem(lehenga(6))
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Empty(t, s.Items())
}

func TestCustomizationOrderDoesNotSplitLines(t *testing.T) {
	s := NewStore(nil)

	a := lehenga(1)
	a.Customization = map[string]string{"blouse": "fitted", "hem": "raised"}
	b := lehenga(1)
	b.Customization = map[string]string{"hem": "raised", "blouse": "fitted"}

	_, err := s.AddItem(a)
	require.NoError(t, err)
	_, err = s.AddItem(b)
	require.NoError(t, err)

	require.Len(t, s.Items(), 1)
	assert.Equal(t, 2, s.Items()[0].Quantity)
}

func TestDifferentCustomizationStaysSeparate(t *testing.T) {
	s := NewStore(nil)

	a := lehenga(1)
	a.Customization = map[string]string{"hem": "raised"}
	b := lehenga(1)

	_, err := s.AddItem(a)
	require.NoError(t, err)
	_, err = s.AddItem(b)
	require.NoError(t, err)

	assert.Len(t, s.Items(), 2)
	assert.Equal(t, 2, s.CountOf("prod-1", ""))
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	s := NewStore(nil)
	added, err := s.AddItem(lehenga(2))
	require.NoError(t, err)

	require.NoError(t, s.UpdateQuantity(added.ID, 0))
	assert.Empty(t, s.Items())

	// absent id is a no-op, not an error
	require.NoError(t, s.UpdateQuantity("missing", 3))
	s.RemoveItem("missing")
}

func TestUpdateQuantityValidatesCeiling(t *testing.T) {
	s := NewStore(nil)
	added, err := s.AddItem(lehenga(2))
	require.NoError(t, err)

	err = s.UpdateQuantity(added.ID, 9)
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(added.ID, 5))
	assert.Equal(t, 5, s.Items()[0].Quantity)
}

func TestDerivedTotals(t *testing.T) {
	s := NewStore(nil)

	_, err := s.AddItem(lehenga(2))
	require.NoError(t, err)

	other := models.CartItem{
		ProductID:   "prod-2",
		VariantID:   "var-1",
		Name:        "Ivory Saree",
		Price:       80,
		Quantity:    1,
		MaxQuantity: 3,
	}
	_, err = s.AddItem(other)
	require.NoError(t, err)

	assert.Equal(t, 3, s.TotalItems())
	assert.InDelta(t, 120.50*2+80, s.TotalPrice(), 1e-9)
	assert.True(t, s.Contains("prod-2", "var-1"))
	assert.False(t, s.Contains("prod-2", ""))
	assert.Equal(t, 2, s.CountOf("prod-1", ""))
}

func TestPersistenceRoundTripClosesDrawer(t *testing.T) {
	p := &memPersister{}
	s := NewStore(nil)

	_, err := s.AddItem(lehenga(2))
	require.NoError(t, err)
	assert.True(t, s.IsOpen())

	// serialize the item sequence the way the persister does
	require.NoError(t, p.Save(s.Items()))

	restored := NewStore(p)
	assert.Equal(t, s.Items(), restored.Items())
	assert.False(t, restored.IsOpen())
}

func TestPersistFailureNeverSurfaces(t *testing.T) {
	p := &memPersister{fail: errors.New("redis down")}
	s := NewStore(p)

	added, err := s.AddItem(lehenga(1))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	require.Len(t, s.Items(), 1)
}

// gatedPersister holds every write until the gate opens, so the test can
// stack up mutations before any of them become durable.
type gatedPersister struct {
	gate    chan struct{}
	mu      sync.Mutex
	last    []models.CartItem
	cleared bool
}

func (p *gatedPersister) Save(items []models.CartItem) error {
	<-p.gate
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = items
	p.cleared = false
	return nil
}

func (p *gatedPersister) Clear() error {
	<-p.gate
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = nil
	p.cleared = true
	return nil
}

func (p *gatedPersister) Load() ([]models.CartItem, error) { return nil, nil }

func (p *gatedPersister) isCleared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleared
}

func TestClearAfterAddLeavesDurableCartCleared(t *testing.T) {
	p := &gatedPersister{gate: make(chan struct{})}
	s := NewStore(p)

	_, err := s.AddItem(lehenga(1))
	require.NoError(t, err)
	s.Clear()
	close(p.gate)

	// whatever order the writes drain in, the durable state must end up
	// matching the final in-memory state: empty
	require.Eventually(t, p.isCleared, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.Items())
}

func TestDrawerToggles(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.IsOpen())
	s.OpenDrawer()
	assert.True(t, s.IsOpen())
	s.ToggleDrawer()
	assert.False(t, s.IsOpen())
	s.CloseDrawer()
	assert.False(t, s.IsOpen())
}
