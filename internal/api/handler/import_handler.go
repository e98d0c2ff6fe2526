package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
	"github.com/YuYe10/DB-EX3/pkg/workbook"
)

// ImportHandler 表格导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
	maxRows   int
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService, maxRows int) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, maxRows: maxRows}
}

// readWorkbook 读取 multipart 字段 file 中的 xlsx
func (h *ImportHandler) readWorkbook(c *gin.Context) (*workbook.Book, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件 file")
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "无法读取上传文件")
		return nil, false
	}
	defer f.Close()

	book, err := workbook.Open(f, h.maxRows)
	if err != nil {
		switch {
		case errors.Is(err, workbook.ErrTooManyRows):
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, err.Error())
		case errors.Is(err, workbook.ErrUnreadable):
			response.BadRequest(c, 10001, workbook.ErrUnreadable.Error())
		default:
			response.BadRequest(c, 10001, "无法解析Excel文件")
		}
		return nil, false
	}
	return book, true
}

// ImportCourses 管理员批量导入学生、课程与选课
// POST /api/v1/import/courses
func (h *ImportHandler) ImportCourses(c *gin.Context) {
	book, ok := h.readWorkbook(c)
	if !ok {
		return
	}
	summary, err := h.importSvc.ImportCourses(c.Request.Context(), book)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, summary)
}

// ImportRoster 教师导入课程名单
// POST /api/v1/import/roster
func (h *ImportHandler) ImportRoster(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	book, ok := h.readWorkbook(c)
	if !ok {
		return
	}
	summary, err := h.importSvc.ImportCourseRoster(c.Request.Context(), actor, book)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, summary)
}

// RosterTemplate 下载名单导入示例
// GET /api/v1/import/roster/template
func (h *ImportHandler) RosterTemplate(c *gin.Context) {
	buf, filename, err := h.importSvc.RosterTemplate()
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.XLSX(c, buf, filename)
}
