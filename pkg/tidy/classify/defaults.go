package classify

// DefaultCatchAll is the catch-all category of the default rules.
const DefaultCatchAll = "other"

// Defaults returns the built-in rule table. A fresh copy is returned on
// every call.
func Defaults() Rules {
	return Rules{
		{Name: "images", Extensions: []string{
			"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp", "svg", "ico", "heic", "heif", "raw",
		}},
		{Name: "videos", Extensions: []string{
			"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm", "m4v", "mpeg", "mpg",
		}},
		{Name: "audio", Extensions: []string{
			"mp3", "flac", "wav", "aac", "ogg", "wma", "m4a", "opus", "aiff",
		}},
		{Name: "documents", Extensions: []string{
			"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "txt", "md", "csv", "epub",
		}},
		{Name: "archives", Extensions: []string{
			"zip", "tar", "gz", "bz2", "xz", "7z", "rar", "tgz", "zst", "iso", "dmg",
		}},
		{Name: "code", Extensions: []string{
			"go", "py", "js", "ts", "java", "c", "cpp", "h", "rs", "rb", "php", "sh", "json", "yaml", "yml", "toml",
		}},
		{Name: DefaultCatchAll},
	}
}
