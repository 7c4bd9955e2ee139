package models

// TaxonomyKind names one of the reference collections
type TaxonomyKind string

const (
	TaxonomyReasonCode TaxonomyKind = "reason_code"
	TaxonomySource     TaxonomyKind = "source"
	TaxonomyRegion     TaxonomyKind = "region"
)

// TaxonomyEntry is one value of a reference enumeration
type TaxonomyEntry struct {
	Kind   TaxonomyKind `bson:"kind" json:"kind"`
	Code   string       `bson:"code" json:"code"`
	Label  string       `bson:"label" json:"label"`
	Active bool         `bson:"active" json:"active"`
	Order  int          `bson:"order" json:"order"`
}

// DefaultTaxonomy seeds an empty taxonomy collection
var DefaultTaxonomy = []TaxonomyEntry{
	{Kind: TaxonomyReasonCode, Code: "fraud.payment", Label: "支付欺诈", Active: true, Order: 1},
	{Kind: TaxonomyReasonCode, Code: "fraud.identity", Label: "身份冒用", Active: true, Order: 2},
	{Kind: TaxonomyReasonCode, Code: "fraud.investment", Label: "投资诈骗", Active: true, Order: 3},
	{Kind: TaxonomyReasonCode, Code: "abuse.spam", Label: "垃圾信息", Active: true, Order: 4},
	{Kind: TaxonomyReasonCode, Code: "abuse.harassment", Label: "骚扰", Active: true, Order: 5},
	{Kind: TaxonomyReasonCode, Code: "security.phishing", Label: "钓鱼", Active: true, Order: 6},
	{Kind: TaxonomyReasonCode, Code: "security.malware", Label: "恶意软件", Active: true, Order: 7},
	{Kind: TaxonomyReasonCode, Code: "credit.default", Label: "违约", Active: true, Order: 8},
	{Kind: TaxonomyReasonCode, Code: "other.other", Label: "其他", Active: true, Order: 99},
	{Kind: TaxonomySource, Code: "user_report", Label: "用户举报", Active: true, Order: 1},
	{Kind: TaxonomySource, Code: "system_detection", Label: "系统检测", Active: true, Order: 2},
	{Kind: TaxonomySource, Code: "partner_feed", Label: "合作方", Active: true, Order: 3},
	{Kind: TaxonomySource, Code: "manual_review", Label: "人工审核", Active: true, Order: 4},
	{Kind: TaxonomySource, Code: "public_record", Label: "公开记录", Active: true, Order: 5},
	{Kind: TaxonomyRegion, Code: "CN", Label: "中国大陆", Active: true, Order: 1},
	{Kind: TaxonomyRegion, Code: "HK", Label: "香港", Active: true, Order: 2},
	{Kind: TaxonomyRegion, Code: "TW", Label: "台湾", Active: true, Order: 3},
	{Kind: TaxonomyRegion, Code: "SG", Label: "新加坡", Active: true, Order: 4},
	{Kind: TaxonomyRegion, Code: "US", Label: "美国", Active: true, Order: 5},
}
