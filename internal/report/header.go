package report

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"wats-sdk/internal/types"
)

// 报告类型
const (
	TypeUUT = "T"
	TypeUUR = "R"
)

// MaxFieldLength 身份和工站字段允许的最大字符数
const MaxFieldLength = 100

// unsafeChars 会破坏服务端搜索的字符
const unsafeChars = `*%?[]!/\`

// Params 创建报告时的输入
type Params struct {
	PN          string
	SN          string
	Rev         string
	ProcessCode int

	StationName string
	Location    string
	Purpose     string

	// Mode 决定添加步骤时是否重新计算状态
	Mode types.BuildMode
	// AllowUnsafeChars 允许 pn/sn 中出现 * % ? [ ] ! / \
	AllowUnsafeChars bool

	// ID 为空时自动生成；以相同 ID 重新提交会覆盖服务端已有的报告
	ID uuid.UUID
	// Start 和 StartUTC 只提供其一时互相推导，都为空时取当前时间
	Start    time.Time
	StartUTC time.Time
}

// Report 由 UUTReport 和 UURReport 实现
type Report interface {
	Head() *Header
	Validate() error
}

// Header 是 UUT 与 UUR 报告共有的顶层字段
type Header struct {
	ID          uuid.UUID    `json:"id"`
	Type        string       `json:"type"`
	PN          string       `json:"pn"`
	SN          string       `json:"sn"`
	Rev         string       `json:"rev"`
	ProcessCode int          `json:"processCode"`
	Result      types.Status `json:"result"`
	MachineName string       `json:"machineName"`
	Location    string       `json:"location"`
	Purpose     string       `json:"purpose"`
	Start       time.Time    `json:"start"`
	StartUTC    time.Time    `json:"-"`

	MiscInfos      []MiscInfo        `json:"miscInfos,omitempty"`
	Assets         []Asset           `json:"assets,omitempty"`
	BinaryData     []BinaryData      `json:"binaryData,omitempty"`
	AdditionalData []json.RawMessage `json:"additionalData,omitempty"`

	allowUnsafe bool
}

func (h *Header) Head() *Header { return h }

func newHeader(typ string, p Params) Header {
	h := Header{
		ID:          p.ID,
		Type:        typ,
		PN:          p.PN,
		SN:          p.SN,
		Rev:         p.Rev,
		ProcessCode: p.ProcessCode,
		Result:      types.StatusPassed,
		MachineName: p.StationName,
		Location:    p.Location,
		Purpose:     p.Purpose,
		Start:       p.Start,
		StartUTC:    p.StartUTC,
		allowUnsafe: p.AllowUnsafeChars,
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.syncStart(time.Now)
	return h
}

// syncStart 保持本地时间与 UTC 时间一致
func (h *Header) syncStart(now func() time.Time) {
	switch {
	case h.Start.IsZero() && h.StartUTC.IsZero():
		h.Start = now()
		h.StartUTC = h.Start.UTC()
	case h.StartUTC.IsZero():
		h.StartUTC = h.Start.UTC()
	case h.Start.IsZero():
		h.Start = h.StartUTC.Local()
	}
}

// SetStart 同时更新本地时间和 UTC 时间
func (h *Header) SetStart(t time.Time) {
	h.Start = t
	h.StartUTC = t.UTC()
}

// AddMiscInfo 追加一条附加信息，键可以重复
func (h *Header) AddMiscInfo(description, text string) *MiscInfo {
	h.MiscInfos = append(h.MiscInfos, MiscInfo{Description: description, Text: text})
	return &h.MiscInfos[len(h.MiscInfos)-1]
}

func (h *Header) AddAsset(sn string, usageCount int) {
	h.Assets = append(h.Assets, Asset{AssetSN: sn, UsageCount: usageCount})
}

// AddAttachment 以 base64 编码附加二进制数据
func (h *Header) AddAttachment(name, contentType string, data []byte) {
	h.BinaryData = append(h.BinaryData, NewBinaryData(name, contentType, data))
}

// validateIdentity 校验身份与工站字段，所有问题通过 errors.Join 一并返回
func (h *Header) validateIdentity() error {
	var errs []error
	check := func(field, value string, searchable bool) {
		n := utf8.RuneCountInString(value)
		switch {
		case n == 0:
			errs = append(errs, &ValidationError{Field: field, Value: value, Reason: "is required"})
		case n > MaxFieldLength:
			errs = append(errs, &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf("exceeds %d characters", MaxFieldLength)})
		}
		if searchable && !h.allowUnsafe {
			if i := strings.IndexAny(value, unsafeChars); i >= 0 {
				errs = append(errs, &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf("contains disallowed character %q", value[i])})
			}
		}
	}
	check("pn", h.PN, true)
	check("sn", h.SN, true)
	check("rev", h.Rev, false)
	check("machineName", h.MachineName, false)
	check("location", h.Location, false)
	check("purpose", h.Purpose, false)
	if !h.Result.ValidResult() {
		errs = append(errs, &ValidationError{Field: "result", Value: string(h.Result), Reason: "must be one of P, F, D, E, T"})
	}
	return errors.Join(errs...)
}

// MiscInfo 附加的键值信息
type MiscInfo struct {
	Description string `json:"description"`
	Text        string `json:"text"`
	Numeric     *int   `json:"numeric,omitempty"`
}

// SubUnit UUT 报告中的部件追溯记录
type SubUnit struct {
	PN       string `json:"pn"`
	SN       string `json:"sn"`
	Rev      string `json:"rev,omitempty"`
	PartType string `json:"partType,omitempty"`
}

// Asset 测试中使用的设备
type Asset struct {
	AssetSN    string `json:"assetSN"`
	UsageCount int    `json:"usageCount"`
}

// BinaryData 附件，Data 为 base64 编码
type BinaryData struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
	Name        string `json:"name"`
}

func NewBinaryData(name, contentType string, data []byte) BinaryData {
	return BinaryData{ContentType: contentType, Data: base64.StdEncoding.EncodeToString(data), Name: name}
}

// Bytes 解码附件内容
func (b BinaryData) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.Data)
}
