package site

// Site is a managed site that members can be imported into. Sites are
// read-only from the console's point of view: the operator only picks one
// as the import target.
type Site struct {
	ID       string `json:"id"`
	SiteName string `json:"siteName"`
	SiteID   string `json:"siteId"`
}
