package core

import "testing"

func TestPaymentStatusIsValid(t *testing.T) {
	cases := []struct {
		s  PaymentStatus
		ok bool
	}{
		{StatusPaid, true},
		{StatusPending, true},
		{StatusOverdue, true},
		{"", false},
		{"PAID", false},
		{"cancelled", false},
	}
	for _, tc := range cases {
		if got := tc.s.IsValid(); got != tc.ok {
			t.Fatalf("%q.IsValid() = %v, want %v", tc.s, got, tc.ok)
		}
	}
}

func TestInvoiceCloneIsDeep(t *testing.T) {
	inv := Invoice{
		ID:          "1",
		Items:       []InvoiceItem{{ID: "i1", Description: "Design", Quantity: 1, Price: 10, Total: 10}},
		Attachments: []InvoiceAttachment{{ID: "a1", FileName: "a.pdf"}},
	}
	cp := inv.Clone()
	cp.Items[0].Description = "changed"
	cp.Attachments[0].FileName = "changed.pdf"
	if inv.Items[0].Description != "Design" {
		t.Fatalf("items share backing array")
	}
	if inv.Attachments[0].FileName != "a.pdf" {
		t.Fatalf("attachments share backing array")
	}

	empty := Invoice{ID: "2"}.Clone()
	if empty.Items != nil || empty.Attachments != nil {
		t.Fatalf("nil slices should stay nil, got %+v", empty)
	}
}

func TestFindAttachment(t *testing.T) {
	inv := Invoice{Attachments: []InvoiceAttachment{{ID: "a"}, {ID: "b"}}}
	if got := inv.FindAttachment("b"); got != 1 {
		t.Fatalf("FindAttachment(b) = %d", got)
	}
	if got := inv.FindAttachment("zzz"); got != -1 {
		t.Fatalf("FindAttachment(zzz) = %d", got)
	}
}
