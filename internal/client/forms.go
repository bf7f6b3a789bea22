package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldKind 决定表单字段如何从命令行文本解析。
type FieldKind int

const (
	KindText FieldKind = iota
	KindLongText
	KindList
	KindEnum
	KindNumber
	KindDate
	KindImage
	KindDocument
	KindLinks
	KindObject
)

// Field describes one editable attribute of a resource.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []string
}

// Form 描述一种资源的管理表单。
type Form struct {
	Resource string
	Label    string
	Fields   []Field
	// Columns 是列表视图显示的字段。
	Columns []string
}

// ValidationError 汇总表单校验失败的字段，在发送请求前返回。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

var forms = map[string]Form{
	"projects": {
		Resource: "projects", Label: "Project",
		Fields: []Field{
			{Name: "title", Label: "Title", Required: true},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "content", Label: "Content", Kind: KindLongText},
			{Name: "image", Label: "Image", Kind: KindImage},
			{Name: "category", Label: "Category", Kind: KindList},
			{Name: "techStack", Label: "Tech stack", Kind: KindList},
			{Name: "hardSkills", Label: "Hard skills", Kind: KindList},
			{Name: "softSkills", Label: "Soft skills", Kind: KindList},
			{Name: "relatedTo", Label: "Related to"},
			{Name: "links", Label: "Links", Kind: KindLinks},
		},
		Columns: []string{"title", "techStack"},
	},
	"skills": {
		Resource: "skills", Label: "Skill",
		Fields: []Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "icon", Label: "Icon", Kind: KindImage},
			{Name: "type", Label: "Type", Kind: KindEnum, Options: []string{"tech", "hardskill", "softskill"}},
			{Name: "category", Label: "Category"},
			{Name: "level", Label: "Level", Kind: KindEnum, Options: []string{"Beginner", "Intermediate", "Advanced", "Expert"}},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "year", Label: "Year", Kind: KindNumber},
			{Name: "visibility", Label: "Visibility", Kind: KindEnum, Options: []string{"public", "private"}},
		},
		Columns: []string{"name", "type", "category", "level"},
	},
	"experiences": {
		Resource: "experiences", Label: "Experience",
		Fields: []Field{
			{Name: "role", Label: "Role", Required: true},
			{Name: "company", Label: "Company", Required: true},
			{Name: "period", Label: "Period"},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "image", Label: "Image", Kind: KindImage},
		},
		Columns: []string{"role", "company", "period"},
	},
	"educations": {
		Resource: "educations", Label: "Education",
		Fields: []Field{
			{Name: "institution", Label: "Institution", Required: true},
			{Name: "degree", Label: "Degree", Required: true},
			{Name: "field", Label: "Field"},
			{Name: "period", Label: "Period"},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "image", Label: "Image", Kind: KindImage},
		},
		Columns: []string{"institution", "degree", "period"},
	},
	"blogs": {
		Resource: "blogs", Label: "Blog",
		Fields: []Field{
			{Name: "title", Label: "Title", Required: true},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "content", Label: "Content", Kind: KindLongText, Required: true},
			{Name: "image", Label: "Image", Kind: KindImage},
			{Name: "tags", Label: "Tags", Kind: KindList},
		},
		Columns: []string{"title", "slug", "views"},
	},
	"certificates": {
		Resource: "certificates", Label: "Certificate",
		Fields: []Field{
			{Name: "title", Label: "Title", Required: true},
			{Name: "issuer", Label: "Issuer", Required: true},
			{Name: "date", Label: "Date"},
			{Name: "credentialUrl", Label: "Credential URL"},
			{Name: "description", Label: "Description", Kind: KindLongText},
			{Name: "image", Label: "Image", Kind: KindImage},
		},
		Columns: []string{"title", "issuer", "date"},
	},
	"achievements": {
		Resource: "achievements", Label: "Achievement",
		Fields: []Field{
			{Name: "title", Label: "Title"},
			{Name: "issuer", Label: "Issuer"},
			{Name: "date", Label: "Date", Kind: KindDate},
			{Name: "proofLink", Label: "Proof link"},
			{Name: "image", Label: "Image", Kind: KindImage},
		},
		Columns: []string{"title", "issuer", "date"},
	},
	"profile": {
		Resource: "profile", Label: "Profile",
		Fields: []Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "headline", Label: "Headline", Kind: KindList},
			{Name: "bio", Label: "Bio", Kind: KindLongText},
			{Name: "location", Label: "Location"},
			{Name: "status", Label: "Status"},
			{Name: "socialLinks", Label: "Social links", Kind: KindObject},
			{Name: "avatar", Label: "Avatar", Kind: KindImage},
			{Name: "resumeLink", Label: "Resume", Kind: KindDocument},
		},
		Columns: []string{"name", "status", "location"},
	},
}

// FormFor returns the form for resource.
func FormFor(resource string) (Form, bool) {
	f, ok := forms[resource]
	return f, ok
}

// Resources lists the collection resources (profile excluded).
func Resources() []string {
	out := make([]string, 0, len(forms))
	for name := range forms {
		if name != "profile" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (f Form) field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Parse 把 name=value 形式的输入转换为文档。
// 列表字段按逗号拆分；links 为 JSON 数组或 "label|url|icon" 以分号分隔；socialLinks 为 JSON 对象。
func (f Form) Parse(assignments []string) (Document, error) {
	doc := Document{}
	var errs []FieldError
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			errs = append(errs, FieldError{Field: a, Message: "expected name=value"})
			continue
		}
		fd, known := f.field(name)
		if !known {
			errs = append(errs, FieldError{Field: name, Message: "unknown field"})
			continue
		}
		parsed, err := parseValue(fd, value)
		if err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
			continue
		}
		doc[name] = parsed
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return doc, nil
}

func parseValue(fd Field, raw string) (any, error) {
	value := strings.TrimSpace(raw)
	switch fd.Kind {
	case KindList:
		items := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items, nil
	case KindNumber:
		if value == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("must be a whole number")
		}
		return n, nil
	case KindLinks:
		return parseLinks(value)
	case KindObject:
		if value == "" {
			return map[string]any{}, nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(value), &obj); err != nil {
			return nil, fmt.Errorf("must be a JSON object")
		}
		return obj, nil
	default:
		return value, nil
	}
}

func parseLinks(value string) ([]map[string]any, error) {
	links := []map[string]any{}
	if value == "" {
		return links, nil
	}
	if strings.HasPrefix(value, "[") {
		if err := json.Unmarshal([]byte(value), &links); err != nil {
			return nil, fmt.Errorf("must be a JSON array of links")
		}
		return links, nil
	}
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) < 2 {
			return nil, fmt.Errorf("link %q must be label|url or label|url|icon", entry)
		}
		link := map[string]any{"label": strings.TrimSpace(parts[0]), "url": strings.TrimSpace(parts[1])}
		if len(parts) > 2 {
			link["icon"] = strings.TrimSpace(parts[2])
		}
		links = append(links, link)
	}
	return links, nil
}

// Validate 在发送请求前检查必填字段与枚举取值。
func (f Form) Validate(doc Document) error {
	var errs []FieldError
	for _, fd := range f.Fields {
		value, present := doc[fd.Name]
		if fd.Required && (!present || isBlank(value)) {
			errs = append(errs, FieldError{Field: fd.Name, Message: fd.Label + " is required"})
			continue
		}
		if fd.Kind == KindEnum && present && !isBlank(value) {
			s, _ := value.(string)
			if !contains(fd.Options, s) {
				errs = append(errs, FieldError{Field: fd.Name, Message: fmt.Sprintf("%s must be one of: %s", fd.Label, strings.Join(fd.Options, ", "))})
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// serverFields 由服务端维护，编辑时不回传。
var serverFields = []string{"_id", "createdAt", "updatedAt", "views", "slug", "__v"}

// Merge 把修改覆盖到当前文档上，得到用于整体替换的完整表示。
func Merge(current, edits Document) Document {
	out := make(Document, len(current)+len(edits))
	for k, v := range current {
		out[k] = v
	}
	for _, k := range serverFields {
		delete(out, k)
	}
	for k, v := range edits {
		out[k] = v
	}
	return out
}

// Uploader 由 *Client 实现。
type Uploader interface {
	UploadImage(ctx context.Context, path string) (Asset, error)
	UploadDocument(ctx context.Context, path string) (Asset, error)
}

// ResolveUploads 上传以 "@" 开头的图片或文档字段，并用返回的 URL 替换字段值。
func (f Form) ResolveUploads(ctx context.Context, doc Document, up Uploader) error {
	for _, fd := range f.Fields {
		if fd.Kind != KindImage && fd.Kind != KindDocument {
			continue
		}
		s, ok := doc[fd.Name].(string)
		if !ok || !strings.HasPrefix(s, "@") {
			continue
		}
		path := strings.TrimPrefix(s, "@")
		var (
			asset Asset
			err   error
		)
		if fd.Kind == KindDocument {
			asset, err = up.UploadDocument(ctx, path)
		} else {
			asset, err = up.UploadImage(ctx, path)
		}
		if err != nil {
			return fmt.Errorf("upload %s: %w", fd.Name, err)
		}
		doc[fd.Name] = asset.URL
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
