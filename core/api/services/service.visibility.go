package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/logger"
	"github.com/zimmerman-team/dx.server/core/utility"
)

// PeerResolver lấy danh sách id các thành viên cùng tổ chức với principal.
// directory.Client thỏa interface này.
type PeerResolver interface {
	GetPeers(ctx context.Context, principal string) ([]string, error)
}

// VisibilityService phân giải phạm vi nhìn thấy của một principal trên các
// asset: thấy bản ghi public, bản ghi của chính mình và bản ghi của thành viên
// cùng tổ chức. Principal ẩn danh chỉ thấy bản ghi public.
type VisibilityService struct {
	peers     PeerResolver
	peerCache *utility.Cache
}

// NewVisibilityService tạo mới VisibilityService
func NewVisibilityService(peers PeerResolver) *VisibilityService {
	return &VisibilityService{
		peers:     peers,
		peerCache: utility.NewCache(5*time.Minute, 10*time.Minute),
	}
}

// ResolvePeers lấy tập peer của principal, cache TTL ngắn.
// Lỗi danh bạ hạ cấp thành tập rỗng (chỉ còn owner + public), log warn, không propagate.
func (s *VisibilityService) ResolvePeers(ctx context.Context, principal string) []string {
	if principal == common.AnonymousPrincipal || principal == "" {
		return []string{}
	}

	if cached, found := s.peerCache.Get(principal); found {
		if peers, ok := cached.([]string); ok {
			return peers
		}
	}

	peers, err := s.peers.GetPeers(ctx, principal)
	if err != nil {
		logger.GetAppLogger().WithError(err).WithField("principal", principal).
			Warn("Không lấy được danh sách peer, hạ cấp về tập rỗng")
		return []string{}
	}
	if peers == nil {
		peers = []string{}
	}

	s.peerCache.Set(principal, peers)
	return peers
}

// Filter mở rộng filter cơ sở thành filter chỉ match các bản ghi principal được thấy.
// Không thay đổi map đầu vào. Filter cơ sở đã dùng key public/$or/$and thì hai vế
// được nối bằng $and thay vì merge key, tránh ghi đè điều kiện của caller.
func (s *VisibilityService) Filter(ctx context.Context, principal string, base bson.M) bson.M {
	var scope bson.M
	if principal == common.AnonymousPrincipal || principal == "" {
		scope = bson.M{"public": true}
	} else {
		owners := append([]string{principal}, s.ResolvePeers(ctx, principal)...)
		scope = bson.M{"$or": []bson.M{
			{"public": true},
			{"owner": bson.M{"$in": owners}},
		}}
	}

	if len(base) == 0 {
		return scope
	}

	out := bson.M{}
	collision := false
	for k, v := range base {
		out[k] = v
		if k == "public" || k == "$or" || k == "$and" {
			collision = true
		}
	}
	if collision {
		return bson.M{"$and": []bson.M{out, scope}}
	}

	for k, v := range scope {
		out[k] = v
	}
	return out
}

// CanView kiểm tra principal có được thấy một bản ghi đã load không
func (s *VisibilityService) CanView(ctx context.Context, principal string, owner string, public bool) bool {
	if public {
		return true
	}
	if principal == common.AnonymousPrincipal || principal == "" {
		return false
	}
	if owner == principal {
		return true
	}
	for _, peer := range s.ResolvePeers(ctx, principal) {
		if peer == owner {
			return true
		}
	}
	return false
}
