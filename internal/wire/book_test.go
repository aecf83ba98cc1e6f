package wire

import (
	"errors"
	"testing"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

const (
	testFloor   = quant.PriceLots(1)
	testCeiling = quant.PriceLots(1 << 40)
)

var me = [32]byte{0xAA, 0x01}

func TestInterpretBookSideBestBid(t *testing.T) {
	buf := buildBookSide(domain.SideBid, []testBookOrder{
		{price: 100, size: 5},
		{price: 105, size: 3},
		{price: 95, size: 9},
	})
	got, err := InterpretBookSide(buf, domain.SideBid, me, testFloor, testCeiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Best != 105 {
		t.Errorf("best bid = %d, want 105", got.Best)
	}
	if len(got.Own) != 0 {
		t.Errorf("no orders owned by us, got %d", len(got.Own))
	}
}

func TestInterpretBookSideBestAsk(t *testing.T) {
	buf := buildBookSide(domain.SideAsk, []testBookOrder{
		{price: 120, size: 5},
		{price: 110, size: 3},
	})
	got, err := InterpretBookSide(buf, domain.SideAsk, me, testFloor, testCeiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Best != 110 {
		t.Errorf("best ask = %d, want 110", got.Best)
	}
}

func TestInterpretBookSideEmptyUsesFloorAndCeiling(t *testing.T) {
	bid, err := InterpretBookSide(buildBookSide(domain.SideBid, nil), domain.SideBid, me, testFloor, testCeiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.Best != testFloor {
		t.Errorf("empty bid side best = %d, want floor %d", bid.Best, testFloor)
	}

	ask, err := InterpretBookSide(buildBookSide(domain.SideAsk, nil), domain.SideAsk, me, testFloor, testCeiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ask.Best != testCeiling {
		t.Errorf("empty ask side best = %d, want ceiling %d", ask.Best, testCeiling)
	}
}

func TestInterpretBookSideOwnershipFilter(t *testing.T) {
	other := [32]byte{0xBB}
	myID := domain.OrderID{Hi: 100, Lo: 7}
	buf := buildBookSide(domain.SideBid, []testBookOrder{
		{owner: other, id: domain.OrderID{Hi: 101, Lo: 1}, price: 101, size: 4},
		{owner: me, id: myID, price: 100, size: 8},
	})
	got, err := InterpretBookSide(buf, domain.SideBid, me, testFloor, testCeiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Own) != 1 {
		t.Fatalf("own orders = %d, want 1", len(got.Own))
	}
	want := domain.OrderState{ID: myID, Side: domain.SideBid, Price: 100, Size: 8}
	if !got.Own[0].Equal(want) {
		t.Errorf("own order = %+v, want %+v", got.Own[0], want)
	}
}

func TestInterpretBookSideTruncated(t *testing.T) {
	buf := buildBookSide(domain.SideBid, []testBookOrder{{price: 100, size: 5}})
	_, err := InterpretBookSide(buf[:len(buf)-4], domain.SideBid, me, testFloor, testCeiling)
	if !errors.Is(err, domain.ErrTruncatedBuffer) {
		t.Errorf("want ErrTruncatedBuffer, got %v", err)
	}
}

func TestInterpretBookSideBadPadding(t *testing.T) {
	buf := buildBookSide(domain.SideBid, nil)
	buf[0] = 'x'
	_, err := InterpretBookSide(buf, domain.SideBid, me, testFloor, testCeiling)
	if !errors.Is(err, domain.ErrBadPadding) {
		t.Errorf("want ErrBadPadding, got %v", err)
	}
}

func TestBestFromSnapshot(t *testing.T) {
	orders := []domain.BookOrder{{Price: 98}, {Price: 103}, {Price: 99}}
	if best := BestFromSnapshot(orders, domain.SideBid, testFloor, testCeiling); best != 103 {
		t.Errorf("best bid = %d, want 103", best)
	}
	if best := BestFromSnapshot(orders, domain.SideAsk, testFloor, testCeiling); best != 98 {
		t.Errorf("best ask = %d, want 98", best)
	}
	if best := BestFromSnapshot(nil, domain.SideBid, testFloor, testCeiling); best != testFloor {
		t.Errorf("empty best bid = %d, want floor", best)
	}
}
