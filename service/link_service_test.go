package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepka-migrator/models"
)

func newTestLinkService(dest *fakeDirectus) *LinkService {
	return NewLinkService(dest.client(), "kepka_shoots_files", "kepka_shoots_id", "directus_files_id", 0)
}

func links(dest *fakeDirectus, recordID any) []string {
	return dest.linkedFiles("kepka_shoots_files", "kepka_shoots_id", "directus_files_id", recordID)
}

func TestReconcileLinks_ReplacesExistingSet(t *testing.T) {
	dest := newFakeDirectus(t)
	dest.seed("kepka_shoots_files", map[string]any{"kepka_shoots_id": 42, "directus_files_id": "A"})
	dest.seed("kepka_shoots_files", map[string]any{"kepka_shoots_id": 42, "directus_files_id": "B"})
	dest.seed("kepka_shoots_files", map[string]any{"kepka_shoots_id": 7, "directus_files_id": "A"})
	svc := newTestLinkService(dest)

	ok := svc.ReconcileLinks(context.Background(), models.NumericItemID(42), []string{"B", "C"})

	assert.True(t, ok)
	assert.Equal(t, []string{"B", "C"}, links(dest, 42))
	assert.Equal(t, []string{"A"}, links(dest, 7))
}

func TestReconcileLinks_RepeatedRunLeavesSameSet(t *testing.T) {
	dest := newFakeDirectus(t)
	svc := newTestLinkService(dest)
	ctx := context.Background()

	assert.True(t, svc.ReconcileLinks(ctx, models.NumericItemID(5), []string{"A", "B"}))
	assert.True(t, svc.ReconcileLinks(ctx, models.NumericItemID(5), []string{"A", "B"}))

	assert.Equal(t, []string{"A", "B"}, links(dest, 5))
	assert.Len(t, dest.list("kepka_shoots_files"), 2)
}

func TestReconcileLinks_CreatesInInputOrderAndLinksRepeatsOnce(t *testing.T) {
	dest := newFakeDirectus(t)
	svc := newTestLinkService(dest)

	svc.ReconcileLinks(context.Background(), models.NumericItemID(5), []string{"C", "A", "B", "A"})

	var order []string
	for _, item := range dest.list("kepka_shoots_files") {
		order = append(order, fmt.Sprint(item["directus_files_id"]))
	}
	assert.Equal(t, []string{"C", "A", "B"}, order)
}

func TestReconcileLinks_PartialFailure(t *testing.T) {
	dest := newFakeDirectus(t)
	dest.failCreate = func(_ string, payload map[string]any) bool {
		return payload["directus_files_id"] == "B"
	}
	svc := newTestLinkService(dest)

	ok := svc.ReconcileLinks(context.Background(), models.NumericItemID(5), []string{"A", "B", "C"})

	assert.False(t, ok)
	assert.Equal(t, []string{"A", "C"}, links(dest, 5))
}

func TestReconcileLinks_DeleteFailureDoesNotHalt(t *testing.T) {
	dest := newFakeDirectus(t)
	stale := dest.seed("kepka_shoots_files", map[string]any{"kepka_shoots_id": 5, "directus_files_id": "OLD"})
	dest.failDelete = func(_, id string) bool { return id == fmt.Sprint(stale) }
	svc := newTestLinkService(dest)

	ok := svc.ReconcileLinks(context.Background(), models.NumericItemID(5), []string{"NEW"})

	assert.True(t, ok)
	assert.Equal(t, []string{"NEW", "OLD"}, links(dest, 5))
}

func TestReconcileLinks_SendsNumericRecordID(t *testing.T) {
	dest := newFakeDirectus(t)
	svc := newTestLinkService(dest)

	svc.ReconcileLinks(context.Background(), models.NumericItemID(12), []string{"A"})

	item := dest.list("kepka_shoots_files")[0]
	// JSON numbers decode to float64 on the fake's side
	assert.Equal(t, float64(12), item["kepka_shoots_id"])
}

func TestReconcileLinks_KeepsStringRecordID(t *testing.T) {
	dest := newFakeDirectus(t)
	svc := newTestLinkService(dest)

	ok := svc.ReconcileLinks(context.Background(), models.StringItemID("007"), []string{"A"})
	require.True(t, ok)

	item := dest.list("kepka_shoots_files")[0]
	assert.Equal(t, "007", item["kepka_shoots_id"])
}
