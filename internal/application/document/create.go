package document

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/google/uuid"
)

// Upload 上传的文件
type Upload struct {
	FileName    string
	ContentType string
	Reader      io.Reader
	// Size 声明的字节数，未知时为 0，仅靠流式检查兜底
	Size int64
}

// SaveDocument 保存上传文件并创建 uploaded 状态的文档
// 扩展名不在白名单、单文件超限或用户总量超限时不会留下任何文件
func (s *Service) SaveDocument(ctx context.Context, userID string, upload Upload, metadata map[string]interface{}) (*domainDoc.Document, error) {
	const op = "save_document"
	if err := docfs.ValidateUserID(userID); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid user")
	}
	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "file name is required")
	}
	if upload.Reader == nil {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "upload content is required")
	}
	ext := domainDoc.NormalizeExtension(name)
	if !s.extensionAllowed(ext) {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "file extension %q is not allowed", ext)
	}

	usage, err := s.CalculateStorageUsage(userID)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxTotalSizePerUser > 0 && usage >= s.cfg.MaxTotalSizePerUser {
		return nil, domainDoc.NewError(domainDoc.KindQuotaExceeded, op,
			"storage quota of %d bytes exhausted", s.cfg.MaxTotalSizePerUser)
	}
	if upload.Size > 0 {
		if s.cfg.MaxFileSize > 0 && upload.Size > s.cfg.MaxFileSize {
			return nil, domainDoc.NewError(domainDoc.KindValidation, op,
				"file exceeds maximum size of %d bytes", s.cfg.MaxFileSize)
		}
		if s.cfg.MaxTotalSizePerUser > 0 && usage+upload.Size > s.cfg.MaxTotalSizePerUser {
			return nil, domainDoc.NewError(domainDoc.KindQuotaExceeded, op,
				"storage quota of %d bytes exceeded", s.cfg.MaxTotalSizePerUser)
		}
	}

	documentID := uuid.NewString()
	rawPath, err := s.layout.RawPath(userID, documentID)
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid document path")
	}
	size, err := s.writeUpload(ctx, rawPath, upload.Reader, usage)
	if err != nil {
		return nil, err
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	doc := s.newDocument(documentID, domainDoc.SourceLocal, name, size, contentType, ext, metadata)
	if err := s.createDocument(ctx, userID, doc); err != nil {
		os.Remove(rawPath)
		return nil, err
	}
	return doc, nil
}

// writeUpload 分块写入临时文件，超限即中止并删除；成功后原子重命名
func (s *Service) writeUpload(ctx context.Context, rawPath string, r io.Reader, usage int64) (int64, error) {
	const op = "save_document"
	if err := os.MkdirAll(filepath.Dir(rawPath), 0755); err != nil {
		return 0, domainDoc.WrapError(domainDoc.KindIO, op, err, "create raw dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(rawPath), "."+filepath.Base(rawPath)+".part-*")
	if err != nil {
		return 0, domainDoc.WrapError(domainDoc.KindIO, op, err, "create upload file")
	}
	tmpName := tmp.Name()
	fail := func(e error) (int64, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, e
	}

	buf := make([]byte, s.cfg.UploadChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if s.cfg.MaxFileSize > 0 && written > s.cfg.MaxFileSize {
				return fail(domainDoc.NewError(domainDoc.KindValidation, op,
					"file exceeds maximum size of %d bytes", s.cfg.MaxFileSize))
			}
			if s.cfg.MaxTotalSizePerUser > 0 && usage+written > s.cfg.MaxTotalSizePerUser {
				return fail(domainDoc.NewError(domainDoc.KindQuotaExceeded, op,
					"storage quota of %d bytes exceeded", s.cfg.MaxTotalSizePerUser))
			}
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				return fail(domainDoc.WrapError(domainDoc.KindIO, op, werr, "write upload"))
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fail(domainDoc.WrapError(domainDoc.KindIO, op, rerr, "read upload"))
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, domainDoc.WrapError(domainDoc.KindIO, op, err, "close upload")
	}
	if err := os.Rename(tmpName, rawPath); err != nil {
		os.Remove(tmpName)
		return 0, domainDoc.WrapError(domainDoc.KindIO, op, err, "store upload")
	}
	return written, nil
}

// CreateRemoteDocument 创建远程 URL 文档，不落原始文件，转换时直接传 URL
func (s *Service) CreateRemoteDocument(ctx context.Context, userID, rawURL string, metadata map[string]interface{}) (*domainDoc.Document, error) {
	const op = "create_remote_document"
	u, err := s.validateURL(op, userID, rawURL)
	if err != nil {
		return nil, err
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = u.Host
	}
	ext := domainDoc.NormalizeExtension(u.Path)

	doc := s.newDocument(uuid.NewString(), domainDoc.SourceRemote, name, 0, mime.TypeByExtension(ext), ext, metadata)
	doc.SourceURL = u.String()
	if err := s.createDocument(ctx, userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateBookmarkDocument 创建网页书签文档
func (s *Service) CreateBookmarkDocument(ctx context.Context, userID, rawURL, title string, metadata map[string]interface{}) (*domainDoc.Document, error) {
	const op = "create_bookmark_document"
	u, err := s.validateURL(op, userID, rawURL)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(title)
	if name == "" {
		name = u.String()
	}

	doc := s.newDocument(uuid.NewString(), domainDoc.SourceWeb, name, 0, "text/html", ".html", metadata)
	doc.SourceURL = u.String()
	if err := s.createDocument(ctx, userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateChatDocument 保存一段对话，原始文件为消息列表 JSON
func (s *Service) CreateChatDocument(ctx context.Context, userID string, messages []domainDoc.ChatMessage, metadata map[string]interface{}) (*domainDoc.Document, error) {
	const op = "create_chat_document"
	if err := docfs.ValidateUserID(userID); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid user")
	}
	if len(messages) == 0 {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "messages are required")
	}
	for i, m := range messages {
		switch m.Role {
		case "user", "assistant", "system":
		default:
			return nil, domainDoc.NewError(domainDoc.KindValidation, op, "message %d has unknown role %q", i, m.Role)
		}
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "encode messages")
	}
	usage, err := s.CalculateStorageUsage(userID)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxTotalSizePerUser > 0 && usage+int64(len(data)) > s.cfg.MaxTotalSizePerUser {
		return nil, domainDoc.NewError(domainDoc.KindQuotaExceeded, op,
			"storage quota of %d bytes exceeded", s.cfg.MaxTotalSizePerUser)
	}

	documentID := uuid.NewString()
	rawPath, err := s.layout.RawPath(userID, documentID)
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid document path")
	}
	if err := docfs.WriteFileAtomic(rawPath, data, 0644); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindIO, op, err, "write messages")
	}

	name := "chat"
	if title, ok := metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
		name = strings.TrimSpace(title)
	}
	doc := s.newDocument(documentID, domainDoc.SourceChat, name, int64(len(data)), "application/json", ".json", metadata)
	if err := s.createDocument(ctx, userID, doc); err != nil {
		os.Remove(rawPath)
		return nil, err
	}
	return doc, nil
}

func (s *Service) validateURL(op, userID, rawURL string) (*url.URL, error) {
	if err := docfs.ValidateUserID(userID); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid user")
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, op, err, "invalid url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domainDoc.NewError(domainDoc.KindValidation, op, "url must be absolute http(s): %q", rawURL)
	}
	return u, nil
}

func (s *Service) extensionAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// newDocument 构造处于入口状态的文档元数据
func (s *Service) newDocument(documentID string, source domainDoc.SourceType, name string, size int64, contentType, ext string, metadata map[string]interface{}) *domainDoc.Document {
	now := s.now()
	doc := &domainDoc.Document{
		DocumentID:     documentID,
		OriginalName:   name,
		Size:           size,
		Type:           contentType,
		Extension:      ext,
		SourceType:     source,
		CreatedAt:      now,
		UpdatedAt:      now,
		Status:         domainDoc.StatusActive,
		State:          domainDoc.EntryState(source),
		ProcessDetails: domainDoc.NewProcessDetails(source),
		Metadata:       metadata,
	}
	doc.ApplyFlags(domainDoc.DerivedFlags(source, doc.State))
	return doc
}

// createDocument 写入初始元数据并记录入口转换
func (s *Service) createDocument(ctx context.Context, userID string, doc *domainDoc.Document) error {
	if err := s.meta.Save(userID, doc); err != nil {
		return err
	}
	event, _ := domainDoc.EntryEvent(doc.SourceType)
	s.recordTransition(ctx, userID, doc.DocumentID, event, domainDoc.StateInit, doc.State, "")
	s.loggerFor(ctx, userID, doc.DocumentID).Info("document created",
		"source_type", doc.SourceType,
		"original_name", doc.OriginalName,
		"size", doc.Size,
	)
	return nil
}
