package es

import (
	"murmur/internal/pkg/util"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/goccy/go-json"
)

type ProfileRepo interface {
	IndexProfile(ctx context.Context, profile *ProfileES) error
	DeleteProfile(ctx context.Context, id uint64) error
	SearchByUsername(ctx context.Context, keyword string, size int) ([]*ProfileES, error)
}

type ProfileRepoImpl struct {
}

func NewProfileRepo() ProfileRepo {
	return &ProfileRepoImpl{}
}

func (s *ProfileRepoImpl) IndexProfile(ctx context.Context, profile *ProfileES) error {
	docID := strconv.FormatUint(profile.ID, 10)

	_, err := Client.Index(ProfileIndex).
		Id(docID).
		Document(profile).
		Do(ctx)
	return err
}

func (s *ProfileRepoImpl) DeleteProfile(ctx context.Context, id uint64) error {
	docID := strconv.FormatUint(id, 10)
	_, err := Client.Delete(ProfileIndex, docID).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) {
			if e.Status == NotFoundCode {
				log.Warn("Profile already deleted or not found in ES", "id", id)
				return nil
			}
		}
		return err
	}
	return nil
}

// SearchByUsername 用户名子串匹配，忽略大小写
func (s *ProfileRepoImpl) SearchByUsername(ctx context.Context, keyword string, size int) ([]*ProfileES, error) {
	pattern := "*" + strings.ToLower(keyword) + "*"

	resp, err := Client.Search().
		Index(ProfileIndex).
		Query(&types.Query{
			Wildcard: map[string]types.WildcardQuery{
				"username": {
					Value:           util.PtrStr(pattern),
					CaseInsensitive: util.PtrBool(true),
				},
			},
		}).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*ProfileES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var profile ProfileES
		if err = json.Unmarshal(hit.Source_, &profile); err != nil {
			continue
		}
		results = append(results, &profile)
	}
	return results, nil
}
