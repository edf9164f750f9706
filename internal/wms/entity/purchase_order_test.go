package entity

import "testing"

// TestStatusTransitions verifies the approval state machine table
func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{POStatusDraft, POStatusPendingApproval, true},
		{POStatusDraft, POStatusApproved, false},
		{POStatusPendingApproval, POStatusApproved, true},
		{POStatusPendingApproval, POStatusRejected, true},
		{POStatusApproved, POStatusOrdered, true},
		{POStatusApproved, POStatusReceived, false},
		{POStatusOrdered, POStatusPartial, true},
		{POStatusOrdered, POStatusReceived, true},
		{POStatusPartial, POStatusReceived, true},
		{POStatusPartial, POStatusPartial, true},
		{POStatusReceived, POStatusCancelled, false},
		{POStatusCancelled, POStatusDraft, false},
		{POStatusRejected, POStatusCancelled, true},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

// TestCancellableFromAnyNonTerminalReceiving verifies cancel is reachable from
// every state except received and cancelled
func TestCancellableFromAnyNonTerminalReceiving(t *testing.T) {
	cancellable := []string{POStatusDraft, POStatusPendingApproval, POStatusApproved, POStatusRejected, POStatusOrdered, POStatusPartial}
	for _, from := range cancellable {
		if !CanTransition(from, POStatusCancelled) {
			t.Errorf("expected %s → cancelled to be valid", from)
		}
	}
	for _, from := range []string{POStatusReceived, POStatusCancelled} {
		if CanTransition(from, POStatusCancelled) {
			t.Errorf("expected %s → cancelled to be invalid", from)
		}
	}
}

// TestRecomputeTotals verifies total/balance derivation and actual-cost override
func TestRecomputeTotals(t *testing.T) {
	po := &PurchaseOrder{
		Items: []POLineItem{
			{Quantity: 10, UnitPrice: 5, TotalPrice: 50},
			{Quantity: 2, UnitPrice: 25, TotalPrice: 50},
		},
	}

	po.RecomputeTotals()
	if po.TotalAmount != 100 {
		t.Fatalf("expected total 100, got %v", po.TotalAmount)
	}
	if po.POBalance != 100 {
		t.Fatalf("expected balance 100, got %v", po.POBalance)
	}

	po.TotalPaid = 120
	po.RecomputeTotals()
	if po.POBalance != -20 {
		t.Fatalf("expected negative balance -20 on overpayment, got %v", po.POBalance)
	}

	// actual-cost override replaces the line-item sum
	po.TotalAmount = 90
	po.ActualCostSet = true
	po.RecomputeTotals()
	if po.TotalAmount != 90 {
		t.Fatalf("expected overridden total 90, got %v", po.TotalAmount)
	}
	if po.POBalance != -30 {
		t.Fatalf("expected balance -30, got %v", po.POBalance)
	}
}

// TestAllItemsReceived verifies the derived receiving predicate
func TestAllItemsReceived(t *testing.T) {
	po := &PurchaseOrder{}
	if po.AllItemsReceived() {
		t.Fatal("empty item list must not count as received")
	}

	po.Items = []POLineItem{
		{Quantity: 10, QuantityReceived: 10},
		{Quantity: 5, QuantityReceived: 4},
	}
	if po.AllItemsReceived() {
		t.Fatal("expected not all received")
	}

	po.Items[1].QuantityReceived = 5
	if !po.AllItemsReceived() {
		t.Fatal("expected all received")
	}
}

// TestShippingStatusValidation verifies the independent shipping label set
func TestShippingStatusValidation(t *testing.T) {
	for _, s := range ValidShippingStatuses {
		if !IsValidShippingStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if IsValidShippingStatus("teleported") {
		t.Error("expected unknown label to be invalid")
	}
}
