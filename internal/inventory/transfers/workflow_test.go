package transfers

import (
	"context"
	"errors"
	"testing"

	"TSUMUGI-backend/internal/inventory/locations"
	"TSUMUGI-backend/internal/inventory/lots"
	"TSUMUGI-backend/internal/platform/auth"
)

// ===== fakes =====

type fakeLotCatalog struct {
	lots       []lots.LotResponse
	err        error
	gotProduct int64
	gotAccess  []int64
	called     bool
}

func (f *fakeLotCatalog) ListActive(_ context.Context, productID int64, accessible []int64) ([]lots.LotResponse, error) {
	f.called = true
	f.gotProduct = productID
	f.gotAccess = accessible
	return f.lots, f.err
}

type fakeLocationCatalog struct {
	locs       []locations.LocationResponse
	err        error
	gotExclude int64
	gotQuery   string
}

func (f *fakeLocationCatalog) ListActive(_ context.Context, excludeID int64, nameQuery string) ([]locations.LocationResponse, error) {
	f.gotExclude = excludeID
	f.gotQuery = nameQuery
	return f.locs, f.err
}

type fakeSubmitter struct {
	record *TransferResponse
	err    error
	calls  []CreateTransferRequest
	actors []auth.Actor
}

func (f *fakeSubmitter) CreateTransfer(_ context.Context, actor auth.Actor, req CreateTransferRequest) (*TransferResponse, error) {
	f.calls = append(f.calls, req)
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

// ===== helpers =====

var testProduct = ProductSnapshot{
	ProductID:           10,
	ProductName:         "綿ブロード 40番手",
	DefaultLocationID:   1,
	DefaultLocationName: "本社倉庫",
	TotalStock:          100,
}

func lotAt(id int64, qty int, locID int64, locName string) lots.LotResponse {
	return lots.LotResponse{
		LotID:        id,
		ProductID:    testProduct.ProductID,
		LotNumber:    int(id),
		Quantity:     qty,
		LocationID:   locID,
		LocationName: locName,
		Status:       "active",
	}
}

func makeWorkflow(actor auth.Actor, sub *fakeSubmitter) *Workflow {
	return NewWorkflow(testProduct, actor, &fakeLotCatalog{}, &fakeLocationCatalog{}, sub)
}

func superAdmin() auth.Actor { return auth.Actor{ID: "u-root", Role: auth.RoleSuperAdmin} }

// 確認ステップまで正常に進めておく
func advanceToConfirmation(t *testing.T, w *Workflow) {
	t.Helper()
	w.SelectLot(lotAt(5, 50, 3, "大阪倉庫"))
	w.SetQuantity("20")
	if err := w.Next(); err != nil {
		t.Fatalf("lot step should pass: %v", err)
	}
	w.SetDestination(2, "銀座ショールーム")
	if err := w.Next(); err != nil {
		t.Fatalf("details step should pass: %v", err)
	}
	if w.CurrentStep() != StepConfirmation {
		t.Fatalf("expected confirmation step, got %s", w.CurrentStep())
	}
}

// ===== tests =====

func TestWorkflowLotStepValidation(t *testing.T) {
	t.Run("opens with entry defaults", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		if w.CurrentStep() != StepLotSelection {
			t.Fatalf("expected lot selection step, got %s", w.CurrentStep())
		}
		if id, name := w.Source(); id != 1 || name != "本社倉庫" {
			t.Fatalf("source should default to the product's location, got %d %q", id, name)
		}
		if w.SelectedLot() != nil || w.QuantityInput() != "" {
			t.Fatal("lot and quantity should start empty")
		}
	})

	t.Run("blocks when no lot selected", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SetQuantity("10")
		err := w.Next()
		assertValidation(t, err, "lot")
		if w.CurrentStep() != StepLotSelection {
			t.Fatal("step must not advance")
		}
	})

	t.Run("blocks blank quantity", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(1, 30, 3, "大阪倉庫"))
		assertValidation(t, w.Next(), "quantity")
	})

	t.Run("blocks non-numeric and non-positive quantity", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(1, 30, 3, "大阪倉庫"))
		for _, bad := range []string{"abc", "-5", "0", "1.5"} {
			w.SetQuantity(bad)
			assertValidation(t, w.Next(), "quantity")
		}
	})

	t.Run("blocks quantity over lot quantity", func(t *testing.T) {
		// ロット残量30・総在庫100で45を入力 → ロット超過で弾く
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(1, 30, 3, "大阪倉庫"))
		w.SetQuantity("45")
		err := w.Next()
		assertValidation(t, err, "quantity")
		if w.CurrentStep() != StepLotSelection {
			t.Fatal("step must not advance")
		}
	})

	t.Run("blocks quantity over total stock", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(1, 500, 3, "大阪倉庫"))
		w.SetQuantity("200") // 総在庫100を超える
		assertValidation(t, w.Next(), "quantity")
	})

	t.Run("passes on boundary quantity", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(1, 30, 3, "大阪倉庫"))
		w.SetQuantity("30")
		if err := w.Next(); err != nil {
			t.Fatalf("quantity equal to lot quantity should pass: %v", err)
		}
	})
}

func TestWorkflowLotSelectionOverridesSource(t *testing.T) {
	w := makeWorkflow(superAdmin(), &fakeSubmitter{})
	// デフォルトは商品の拠点(1)だが、ロットの所在拠点(3)で上書きされる
	w.SelectLot(lotAt(7, 40, 3, "大阪倉庫"))
	if id, name := w.Source(); id != 3 || name != "大阪倉庫" {
		t.Fatalf("source should follow the selected lot, got %d %q", id, name)
	}
	// 別ロットを選び直せば再度上書き
	w.SelectLot(lotAt(8, 10, 2, "銀座ショールーム"))
	if id, _ := w.Source(); id != 2 {
		t.Fatalf("source should follow the latest lot, got %d", id)
	}
}

func TestWorkflowDetailsStepValidation(t *testing.T) {
	setup := func() *Workflow {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		w.SelectLot(lotAt(5, 50, 3, "大阪倉庫"))
		w.SetQuantity("20")
		if err := w.Next(); err != nil {
			t.Fatalf("lot step should pass: %v", err)
		}
		return w
	}

	t.Run("blocks blank destination", func(t *testing.T) {
		w := setup()
		assertValidation(t, w.Next(), "to_location_id")
		if w.CurrentStep() != StepTransferDetails {
			t.Fatal("step must not advance")
		}
	})

	t.Run("blocks same source and destination", func(t *testing.T) {
		w := setup()
		w.SetDestination(3, "大阪倉庫") // 振替元と同じ
		assertValidation(t, w.Next(), "to_location_id")
	})

	t.Run("passes with distinct destination", func(t *testing.T) {
		w := setup()
		w.SetDestination(2, "銀座ショールーム")
		if err := w.Next(); err != nil {
			t.Fatalf("details step should pass: %v", err)
		}
		if w.CurrentStep() != StepConfirmation {
			t.Fatalf("expected confirmation, got %s", w.CurrentStep())
		}
	})
}

func TestWorkflowBackPreservesState(t *testing.T) {
	w := makeWorkflow(superAdmin(), &fakeSubmitter{})
	advanceToConfirmation(t, w)

	w.Back()
	if w.CurrentStep() != StepTransferDetails {
		t.Fatalf("expected transfer details, got %s", w.CurrentStep())
	}
	w.Back()
	if w.CurrentStep() != StepLotSelection {
		t.Fatalf("expected lot selection, got %s", w.CurrentStep())
	}

	// 入力値は全て残っている
	if w.QuantityInput() != "20" {
		t.Fatalf("quantity should be preserved, got %q", w.QuantityInput())
	}
	if w.SelectedLot() == nil || w.SelectedLot().LotID != 5 {
		t.Fatal("selected lot should be preserved")
	}
	if id, _ := w.Destination(); id != 2 {
		t.Fatalf("destination should be preserved, got %d", id)
	}
}

func TestWorkflowCancelDiscardsState(t *testing.T) {
	w := makeWorkflow(superAdmin(), &fakeSubmitter{})
	w.SelectLot(lotAt(5, 50, 3, "大阪倉庫"))
	w.SetQuantity("20")

	out := w.Cancel()
	if out.Kind != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %s", out.Kind)
	}
	if !w.Closed() {
		t.Fatal("workflow should be closed")
	}
	if w.SelectedLot() != nil || w.QuantityInput() != "" {
		t.Fatal("state should be discarded")
	}
	if err := w.Next(); err == nil {
		t.Fatal("closed workflow must reject transitions")
	}
}

func TestWorkflowSubmitPermission(t *testing.T) {
	t.Run("location-scoped admin blocked for inaccessible source", func(t *testing.T) {
		// 拠点{1,2}のadminが拠点3のロットから振替 → 送信前にブロック
		sub := &fakeSubmitter{}
		actor := auth.Actor{ID: "u-admin", Role: auth.RoleAdmin, LocationIDs: []int64{1, 2}}
		w := makeWorkflow(actor, sub)
		advanceToConfirmation(t, w)

		out, err := w.Submit(context.Background())
		var api *APIError
		if !errors.As(err, &api) || api.Code != CodePermissionDenied {
			t.Fatalf("expected PERMISSION_DENIED, got %v", err)
		}
		if out.Kind != OutcomeFailed {
			t.Fatalf("expected failed outcome, got %s", out.Kind)
		}
		if len(sub.calls) != 0 {
			t.Fatal("submitter must not be called when permission is denied")
		}
		if w.CurrentStep() != StepConfirmation {
			t.Fatal("workflow should remain at confirmation")
		}
	})

	t.Run("location-scoped admin allowed for accessible source", func(t *testing.T) {
		sub := &fakeSubmitter{record: &TransferResponse{TransferID: 1, TransferULID: "01TEST"}}
		actor := auth.Actor{ID: "u-admin", Role: auth.RoleAdmin, LocationIDs: []int64{2, 3}}
		w := makeWorkflow(actor, sub)
		advanceToConfirmation(t, w)

		if _, err := w.Submit(context.Background()); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(sub.calls) != 1 {
			t.Fatalf("expected 1 submission, got %d", len(sub.calls))
		}
	})

	t.Run("global role skips location check", func(t *testing.T) {
		// super_admin は拠点リストが空でもチェック自体が行われない
		sub := &fakeSubmitter{record: &TransferResponse{TransferID: 2}}
		w := makeWorkflow(superAdmin(), sub)
		advanceToConfirmation(t, w)

		if _, err := w.Submit(context.Background()); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(sub.calls) != 1 {
			t.Fatalf("expected 1 submission, got %d", len(sub.calls))
		}
	})
}

func TestWorkflowSubmit(t *testing.T) {
	t.Run("builds command from entered state", func(t *testing.T) {
		sub := &fakeSubmitter{record: &TransferResponse{TransferID: 3}}
		w := makeWorkflow(superAdmin(), sub)
		advanceToConfirmation(t, w)
		w.SetNotes("秋物入替")

		out, err := w.Submit(context.Background())
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if out.Kind != OutcomeSubmitted || out.Record == nil || out.Record.TransferID != 3 {
			t.Fatalf("expected submitted outcome with record, got %+v", out)
		}

		got := sub.calls[0]
		if got.ProductID != testProduct.ProductID || got.LotID != 5 || got.ToLocationID != 2 || got.Quantity != 20 {
			t.Fatalf("unexpected command: %+v", got)
		}
		if got.Notes == nil || *got.Notes != "秋物入替" {
			t.Fatal("notes should be carried on the command")
		}
		if sub.actors[0].ID != "u-root" {
			t.Fatal("command must be tagged with the acting user")
		}
	})

	t.Run("success resets and closes the workflow", func(t *testing.T) {
		sub := &fakeSubmitter{record: &TransferResponse{TransferID: 4}}
		w := makeWorkflow(superAdmin(), sub)
		advanceToConfirmation(t, w)

		if _, err := w.Submit(context.Background()); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !w.Closed() {
			t.Fatal("workflow should close on success")
		}
		if w.SelectedLot() != nil || w.QuantityInput() != "" {
			t.Fatal("state should reset to entry defaults")
		}
		if id, _ := w.Source(); id != testProduct.DefaultLocationID {
			t.Fatal("source should reset to the product default")
		}
	})

	t.Run("failure preserves state for retry", func(t *testing.T) {
		sub := &fakeSubmitter{err: ErrConflict("insufficient lot quantity")}
		w := makeWorkflow(superAdmin(), sub)
		advanceToConfirmation(t, w)

		out, err := w.Submit(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if out.Kind != OutcomeFailed {
			t.Fatalf("expected failed outcome, got %s", out.Kind)
		}
		if w.Closed() {
			t.Fatal("workflow should stay open")
		}
		if w.CurrentStep() != StepConfirmation {
			t.Fatal("workflow should remain at confirmation")
		}
		if w.QuantityInput() != "20" {
			t.Fatal("entered values must survive a failed submission")
		}

		// そのまま再試行できる
		sub.err = nil
		sub.record = &TransferResponse{TransferID: 5}
		if _, err := w.Submit(context.Background()); err != nil {
			t.Fatalf("retry should succeed: %v", err)
		}
	})

	t.Run("revalidates before submitting", func(t *testing.T) {
		// 確認ステップ到達後に数量を壊す → 送信は行われない
		sub := &fakeSubmitter{record: &TransferResponse{TransferID: 6}}
		w := makeWorkflow(superAdmin(), sub)
		advanceToConfirmation(t, w)
		w.SetQuantity("9999")

		_, err := w.Submit(context.Background())
		assertValidation(t, err, "quantity")
		if len(sub.calls) != 0 {
			t.Fatal("submitter must not be called with invalid input")
		}
	})

	t.Run("rejects submit outside confirmation step", func(t *testing.T) {
		w := makeWorkflow(superAdmin(), &fakeSubmitter{})
		if _, err := w.Submit(context.Background()); err == nil {
			t.Fatal("submit from lot selection must fail")
		}
	})
}

func TestWorkflowOptionFetching(t *testing.T) {
	t.Run("lot options scoped to accessible locations", func(t *testing.T) {
		lotCat := &fakeLotCatalog{lots: []lots.LotResponse{lotAt(1, 10, 1, "本社倉庫")}}
		actor := auth.Actor{ID: "u-admin", Role: auth.RoleAdmin, LocationIDs: []int64{1, 2}}
		w := NewWorkflow(testProduct, actor, lotCat, &fakeLocationCatalog{}, &fakeSubmitter{})

		got, err := w.LotOptions(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 lot, got %d", len(got))
		}
		if lotCat.gotProduct != testProduct.ProductID {
			t.Fatalf("expected product %d, got %d", testProduct.ProductID, lotCat.gotProduct)
		}
		if len(lotCat.gotAccess) != 2 {
			t.Fatalf("expected accessible locations on the query, got %v", lotCat.gotAccess)
		}
	})

	t.Run("lot options unrestricted for global role", func(t *testing.T) {
		lotCat := &fakeLotCatalog{}
		w := NewWorkflow(testProduct, superAdmin(), lotCat, &fakeLocationCatalog{}, &fakeSubmitter{})
		if _, err := w.LotOptions(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lotCat.gotAccess != nil {
			t.Fatalf("global role should not be restricted, got %v", lotCat.gotAccess)
		}
	})

	t.Run("destination options exclude the source", func(t *testing.T) {
		locCat := &fakeLocationCatalog{}
		w := NewWorkflow(testProduct, superAdmin(), &fakeLotCatalog{}, locCat, &fakeSubmitter{})
		w.SelectLot(lotAt(5, 50, 3, "大阪倉庫"))

		if _, err := w.DestinationOptions(context.Background(), "倉庫"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if locCat.gotExclude != 3 {
			t.Fatalf("source location should be excluded, got %d", locCat.gotExclude)
		}
		if locCat.gotQuery != "倉庫" {
			t.Fatalf("name query should pass through, got %q", locCat.gotQuery)
		}
	})

	t.Run("catalog error surfaces as retryable error", func(t *testing.T) {
		lotCat := &fakeLotCatalog{err: errors.New("connection refused")}
		w := NewWorkflow(testProduct, superAdmin(), lotCat, &fakeLocationCatalog{}, &fakeSubmitter{})
		if _, err := w.LotOptions(context.Background()); err == nil {
			t.Fatal("transport error should surface to the caller")
		}
		// ワークフロー自体は開いたまま
		if w.Closed() {
			t.Fatal("workflow should stay open after a fetch error")
		}
	})
}

// ---------- helpers ----------

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var api *APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if api.Code != CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s", api.Code)
	}
	if api.Field != field {
		t.Fatalf("expected field %q, got %q", field, api.Field)
	}
}
