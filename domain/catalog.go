package domain

// Asset is one downloadable installer in the fixed catalog.
type Asset struct {
	Filename string `json:"filename"`
	Platform string `json:"platform"`
	Version  string `json:"version"`
	Current  bool   `json:"current"`
}

// Catalog is the static list of installers offered in listing mode. It is
// content, not data - the database never drives it.
var Catalog = []Asset{
	{Filename: "neuroConstruct_windows_1_0_1.exe", Platform: "Windows", Version: "1.0.1", Current: true},
	{Filename: "neuroConstruct_unix_1_0_1.sh", Platform: "Linux", Version: "1.0.1", Current: true},
	{Filename: "neuroConstruct_macos_1_0_1.dmg", Platform: "Mac", Version: "1.0.1", Current: true},
	{Filename: "neuroConstruct_1.0.1.zip", Platform: "Zip", Version: "1.0.1", Current: true},
	{Filename: "neuroConstruct_windows_0_9_8.exe", Platform: "Windows", Version: "0.9.8"},
	{Filename: "neuroConstruct_unix_0_9_8.sh", Platform: "Linux", Version: "0.9.8"},
	{Filename: "neuroConstruct_macos_0_9_8.dmg", Platform: "Mac", Version: "0.9.8"},
	{Filename: "neuroConstruct_0.9.8.zip", Platform: "Zip", Version: "0.9.8"},
}

// AssetByFilename resolves a client-supplied filename through the catalog.
// This exact-match allow-list is the only route from request input to the
// download root, so traversal segments can never reach the filesystem.
func AssetByFilename(name string) (Asset, bool) {
	for _, a := range Catalog {
		if a.Filename == name {
			return a, true
		}
	}
	return Asset{}, false
}
