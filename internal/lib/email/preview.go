package email

// PreviewData holds sample variables for every template, used by
// `bookshelfctl email preview`.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"Username": "momo",
	},
}
