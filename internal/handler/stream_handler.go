package handler

import (
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/dto/request"
	"cosinnus_server/internal/dto/respond"
	"cosinnus_server/internal/infrastructure/middleware"
	"cosinnus_server/internal/model"
	"cosinnus_server/internal/service"
	"cosinnus_server/internal/service/stream"
	"cosinnus_server/pkg/errorx"
)

// StreamHandler 动态流请求处理器
type StreamHandler struct {
	streamSvc       service.StreamService
	defaultPageSize int
}

// NewStreamHandler 创建动态流处理器，pageSize 为未指定 limit 时的页大小
func NewStreamHandler(streamSvc service.StreamService, pageSize int) *StreamHandler {
	return &StreamHandler{streamSvc: streamSvc, defaultPageSize: pageSize}
}

func (h *StreamHandler) window(p request.PageRequest) (int, int) {
	if p.Limit == nil {
		return p.Offset, h.defaultPageSize
	}
	return p.Offset, *p.Limit
}

func viewerOf(c *gin.Context) stream.Viewer {
	return stream.Viewer{UserID: middleware.CurrentUserID(c)}
}

// ListStreams 当前用户的动态流
// GET /stream
func (h *StreamHandler) ListStreams(c *gin.Context) {
	streams, err := h.streamSvc.ListStreams(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	out := make([]respond.StreamRespond, 0, len(streams))
	for i := range streams {
		out = append(out, respond.NewStreamRespond(&streams[i]))
	}
	HandleSuccess(c, out)
}

// CreateSpecialStreams 为当前用户创建"我的动态"
// POST /stream/special
func (h *StreamHandler) CreateSpecialStreams(c *gin.Context) {
	var req request.CreateSpecialStreamsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
	}
	streams, err := h.streamSvc.CreateSpecialStreams(c.Request.Context(), middleware.CurrentUserID(c), req.PortalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	out := make([]respond.StreamRespond, 0, len(streams))
	for i := range streams {
		out = append(out, respond.NewStreamRespond(&streams[i]))
	}
	HandleSuccess(c, out)
}

// Objects 动态流内容
// GET /stream/:id?offset=0&limit=30
// 响应: respond.StreamObjectsRespond
func (h *StreamHandler) Objects(c *gin.Context) {
	var uri request.StreamURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	var page request.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		HandleParamError(c, err)
		return
	}
	offset, limit := h.window(page)
	res, err := h.streamSvc.Objects(c.Request.Context(), uri.ID, viewerOf(c), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewStreamObjectsRespond(res.Items, res.Total, res.HasMore))
}

// PublicObjects 公开动态流，可匿名访问
// GET /stream/public?portal_ids=1,2&models=event,note
func (h *StreamHandler) PublicObjects(c *gin.Context) {
	var req request.PublicStreamRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	portals, ok := model.SplitIDs(req.PortalIDs)
	if !ok {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "portal_ids 格式错误"))
		return
	}
	offset, limit := h.window(req.PageRequest)
	res, err := h.streamSvc.PublicObjects(c.Request.Context(), portals, model.SplitNames(req.Models), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewStreamObjectsRespond(res.Items, res.Total, res.HasMore))
}

// Unread 未读数量
// GET /stream/:id/unread
func (h *StreamHandler) Unread(c *gin.Context) {
	var uri request.StreamURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	n, err := h.streamSvc.Unread(c.Request.Context(), uri.ID, viewerOf(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.UnreadRespond{StreamID: uri.ID, Count: n})
}

// MarkSeen 标记已读
// POST /stream/:id/seen
func (h *StreamHandler) MarkSeen(c *gin.Context) {
	var uri request.StreamURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	s, err := h.streamSvc.MarkSeen(c.Request.Context(), uri.ID, viewerOf(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewStreamRespond(s))
}
