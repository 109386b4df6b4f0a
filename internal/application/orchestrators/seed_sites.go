package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	siteStore "importdesk/internal/adapters/storage/site"
	domain "importdesk/internal/domain/site"
)

// SeedSitesDeps holds external dependencies for the site registry seeder.
type SeedSitesDeps struct {
	SiteStore  siteStore.Store
	GenerateID func() string
}

// defaultSites is used in development when no registry spec is configured.
var defaultSites = []domain.Site{
	{SiteName: "Demo Site", SiteID: "demo"},
	{SiteName: "Staging Site", SiteID: "staging"},
}

// ExecuteSeedSites populates the site registry on first start. The spec
// is a comma-separated list of "siteId:Display Name" pairs; an empty spec
// seeds the development defaults. Seeding is skipped when the registry
// already has entries.
// PRE: deps are fully wired
// POST: Registry is non-empty, or an error is returned
// INVARIANT: Existing registry entries are never modified
func ExecuteSeedSites(ctx context.Context, deps SeedSitesDeps, spec string) error {
	existing, err := deps.SiteStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	sites := defaultSites
	if spec != "" {
		sites, err = parseSiteSpec(spec)
		if err != nil {
			return err
		}
	}

	for _, s := range sites {
		s.ID = deps.GenerateID()
		if err := deps.SiteStore.Save(ctx, s); err != nil {
			return fmt.Errorf("save site %s: %w", s.SiteID, err)
		}
	}

	slog.Info("sites_seeded", "count", len(sites), "from_env", spec != "")
	return nil
}

// parseSiteSpec parses "siteId:Display Name,siteId2:Other Name".
func parseSiteSpec(spec string) ([]domain.Site, error) {
	var sites []domain.Site
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, name, ok := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid site spec entry %q (want siteId:Display Name)", part)
		}
		sites = append(sites, domain.Site{SiteName: name, SiteID: id})
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("site spec %q contains no entries", spec)
	}
	return sites, nil
}
