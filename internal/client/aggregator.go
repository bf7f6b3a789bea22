package client

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Snapshot 是公开站点一次渲染所需的全部数据。
// 读取失败的分区为空，并记录在 Failed 中。
type Snapshot struct {
	Profile      Document
	Skills       []Document
	Experiences  []Document
	Educations   []Document
	Projects     []Document
	Blogs        []Document
	Certificates []Document
	Achievements []Document
	Failed       []string
	Errors       map[string]error
}

// Reader 是聚合器依赖的只读接口，*Client 实现了它。
type Reader interface {
	List(ctx context.Context, resource string) ([]Document, error)
	Profile(ctx context.Context) (Document, error)
}

// Sections lists the snapshot sections in fetch order.
var Sections = []string{"profile", "skills", "experiences", "educations", "projects", "blogs", "certificates", "achievements"}

// FetchSnapshot 并发读取所有分区。单个分区失败不会影响其他分区，整体从不返回错误。
func FetchSnapshot(ctx context.Context, r Reader) Snapshot {
	var (
		snap Snapshot
		mu   sync.Mutex
		g    errgroup.Group
	)
	snap.Errors = map[string]error{}

	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		snap.Failed = append(snap.Failed, section)
		snap.Errors[section] = err
	}

	g.Go(func() error {
		profile, err := r.Profile(ctx)
		if err != nil {
			fail("profile", err)
			return nil
		}
		mu.Lock()
		snap.Profile = profile
		mu.Unlock()
		return nil
	})

	lists := map[string]*[]Document{
		"skills":       &snap.Skills,
		"experiences":  &snap.Experiences,
		"educations":   &snap.Educations,
		"projects":     &snap.Projects,
		"blogs":        &snap.Blogs,
		"certificates": &snap.Certificates,
		"achievements": &snap.Achievements,
	}
	for section, dst := range lists {
		g.Go(func() error {
			docs, err := r.List(ctx, section)
			if err != nil {
				fail(section, err)
				docs = []Document{}
			}
			mu.Lock()
			*dst = docs
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	order := make(map[string]int, len(Sections))
	for i, s := range Sections {
		order[s] = i
	}
	sort.Slice(snap.Failed, func(i, j int) bool { return order[snap.Failed[i]] < order[snap.Failed[j]] })
	return snap
}
