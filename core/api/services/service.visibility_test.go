package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zimmerman-team/dx.server/core/common"
)

// fakePeerResolver giả lập directory client cho test visibility
type fakePeerResolver struct {
	peers map[string][]string
	err   error
	calls int
}

func (f *fakePeerResolver) GetPeers(ctx context.Context, principal string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.peers[principal], nil
}

func TestVisibilityFilter_Anonymous(t *testing.T) {
	svc := NewVisibilityService(&fakePeerResolver{})

	out := svc.Filter(context.Background(), common.AnonymousPrincipal, bson.M{})
	if out["public"] != true {
		t.Errorf("filter ẩn danh phải chỉ match public, got: %v", out)
	}
	if _, hasOr := out["$or"]; hasOr {
		t.Error("filter ẩn danh không được có nhánh $or theo owner")
	}
}

func TestVisibilityFilter_OwnerAndPeers(t *testing.T) {
	resolver := &fakePeerResolver{peers: map[string][]string{
		"alice": {"bob", "carol"},
	}}
	svc := NewVisibilityService(resolver)

	out := svc.Filter(context.Background(), "alice", bson.M{"name": "x"})
	if out["name"] != "x" {
		t.Error("filter cơ sở phải được giữ nguyên trong kết quả")
	}

	or, ok := out["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("filter phải có $or gồm 2 nhánh, got: %v", out["$or"])
	}
	if or[0]["public"] != true {
		t.Errorf("nhánh đầu phải là public:true, got: %v", or[0])
	}
	in := or[1]["owner"].(bson.M)["$in"].([]string)
	want := map[string]bool{"alice": true, "bob": true, "carol": true}
	if len(in) != 3 {
		t.Fatalf("owner $in phải gồm principal + 2 peer, got: %v", in)
	}
	for _, o := range in {
		if !want[o] {
			t.Errorf("owner không mong đợi trong $in: %s", o)
		}
	}
}

func TestVisibilityFilter_BaseWithConflictingKeysConjoined(t *testing.T) {
	resolver := &fakePeerResolver{peers: map[string][]string{"alice": {"bob"}}}
	svc := NewVisibilityService(resolver)

	base := bson.M{"$or": []bson.M{{"name": "x"}, {"name": "y"}}}
	out := svc.Filter(context.Background(), "alice", base)

	and, ok := out["$and"].([]bson.M)
	if !ok || len(and) != 2 {
		t.Fatalf("filter cơ sở có $or phải được nối bằng $and, got: %v", out)
	}
	if _, hasOr := and[0]["$or"]; !hasOr {
		t.Errorf("vế đầu của $and phải giữ nguyên $or của caller, got: %v", and[0])
	}
	if _, hasOr := and[1]["$or"]; !hasOr {
		t.Errorf("vế sau của $and phải là điều kiện phạm vi nhìn thấy, got: %v", and[1])
	}

	// Key public của caller cũng không được ghi đè khi principal ẩn danh
	outAnon := svc.Filter(context.Background(), common.AnonymousPrincipal, bson.M{"public": false})
	andAnon, ok := outAnon["$and"].([]bson.M)
	if !ok || len(andAnon) != 2 {
		t.Fatalf("base public:false + ẩn danh phải thành $and, got: %v", outAnon)
	}
	if andAnon[0]["public"] != false || andAnon[1]["public"] != true {
		t.Errorf("hai điều kiện public phải cùng tồn tại trong $and, got: %v", outAnon)
	}
}

func TestVisibilityFilter_DoesNotMutateBase(t *testing.T) {
	svc := NewVisibilityService(&fakePeerResolver{})
	base := bson.M{"name": "x"}
	svc.Filter(context.Background(), "alice", base)
	if len(base) != 1 {
		t.Errorf("filter cơ sở bị thay đổi: %v", base)
	}
}

func TestResolvePeers_DirectoryErrorDegradesToEmpty(t *testing.T) {
	resolver := &fakePeerResolver{err: errors.New("directory down")}
	svc := NewVisibilityService(resolver)

	peers := svc.ResolvePeers(context.Background(), "alice")
	if len(peers) != 0 {
		t.Errorf("lỗi danh bạ phải hạ cấp về tập rỗng, got: %v", peers)
	}

	// Lỗi không được cache: gọi lại phải chạm resolver lần nữa
	svc.ResolvePeers(context.Background(), "alice")
	if resolver.calls != 2 {
		t.Errorf("kết quả lỗi không được cache, expected 2 calls, got %d", resolver.calls)
	}
}

func TestResolvePeers_CachesSuccess(t *testing.T) {
	resolver := &fakePeerResolver{peers: map[string][]string{"alice": {"bob"}}}
	svc := NewVisibilityService(resolver)

	svc.ResolvePeers(context.Background(), "alice")
	svc.ResolvePeers(context.Background(), "alice")
	if resolver.calls != 1 {
		t.Errorf("kết quả thành công phải được cache, expected 1 call, got %d", resolver.calls)
	}
}

func TestResolvePeers_AnonymousSkipsDirectory(t *testing.T) {
	resolver := &fakePeerResolver{}
	svc := NewVisibilityService(resolver)

	peers := svc.ResolvePeers(context.Background(), common.AnonymousPrincipal)
	if len(peers) != 0 || resolver.calls != 0 {
		t.Errorf("ẩn danh không được gọi directory, peers=%v calls=%d", peers, resolver.calls)
	}
}

func TestCanView(t *testing.T) {
	resolver := &fakePeerResolver{peers: map[string][]string{"alice": {"bob"}}}
	svc := NewVisibilityService(resolver)
	ctx := context.Background()

	cases := []struct {
		name      string
		principal string
		owner     string
		public    bool
		want      bool
	}{
		{"public ai cũng thấy", common.AnonymousPrincipal, "alice", true, true},
		{"ẩn danh không thấy private", common.AnonymousPrincipal, "alice", false, false},
		{"owner thấy của mình", "alice", "alice", false, true},
		{"peer thấy của nhau", "alice", "bob", false, true},
		{"ngoài tổ chức không thấy", "alice", "dave", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.CanView(ctx, tc.principal, tc.owner, tc.public)
			if got != tc.want {
				t.Errorf("CanView(%s, owner=%s, public=%v) = %v, want %v", tc.principal, tc.owner, tc.public, got, tc.want)
			}
		})
	}
}
