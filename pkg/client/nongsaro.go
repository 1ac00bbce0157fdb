package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultNongsaroBaseURL = "http://api.nongsaro.go.kr/service/varietyInfo"

	nongsaroResultOK = "00"
	varietyPageSize  = 10
)

// nongsaroCodeDescriptions annotates the documented error codes.
var nongsaroCodeDescriptions = map[string]string{
	"11": "인증키 문제",
	"13": "유효한 요청 주소/파라미터가 아님",
	"15": "도메인 미등록 오류",
	"91": "농사로 시스템 오류",
}

// DescribeNongsaroCode returns the annotation for a result code, or "".
func DescribeNongsaroCode(code string) string {
	return nongsaroCodeDescriptions[code]
}

type nongsaroHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type nongsaroItem struct {
	CategoryNm     string `xml:"categoryNm"`
	CategoryCode   string `xml:"categoryCode"`
	CodeNm         string `xml:"codeNm"`
	Code           string `xml:"code"`
	SvcCodeNm      string `xml:"svcCodeNm"`
	MainChartrInfo string `xml:"mainChartrInfo"`
}

type nongsaroResponse struct {
	XMLName xml.Name        `xml:"response"`
	Header  *nongsaroHeader `xml:"header"`
	Body    struct {
		Items *struct {
			TotalCount string         `xml:"totalCount"`
			Item       []nongsaroItem `xml:"item"`
		} `xml:"items"`
	} `xml:"body"`
}

// NongsaroClient reads the Nongsaro variety-information service (XML only).
type NongsaroClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

func NewNongsaroClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *NongsaroClient {
	if baseURL == "" {
		baseURL = DefaultNongsaroBaseURL
	}
	return &NongsaroClient{
		BaseClient: NewBaseClient("nongsaro", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// HasCredential reports whether an API key is configured.
func (c *NongsaroClient) HasCredential() bool {
	return c.apiKey != ""
}

func (c *NongsaroClient) call(ctx context.Context, operation string, params url.Values) (*nongsaroResponse, *models.Failure) {
	if c.apiKey == "" {
		return nil, models.MissingCredential("NONGSARO_API_KEY")
	}
	params.Set("apiKey", c.apiKey)

	data, failure := c.Get(ctx, c.baseURL+"/"+operation+"?"+params.Encode(), nil)
	if failure != nil {
		return nil, failure
	}

	var resp nongsaroResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, models.SchemaFailure("decoding "+operation+" XML", err)
	}
	if resp.Header == nil {
		return nil, models.SchemaFailure(operation+" response has no header", nil)
	}
	if code := strings.TrimSpace(resp.Header.ResultCode); code != nongsaroResultOK {
		msg := strings.TrimSpace(resp.Header.ResultMsg)
		if desc := DescribeNongsaroCode(code); desc != "" {
			msg = fmt.Sprintf("%s - %s", msg, desc)
		}
		return nil, models.ProviderFailure(code, msg)
	}
	return &resp, nil
}

// MainCategories lists the top-level categories with the sentinel first.
func (c *NongsaroClient) MainCategories(ctx context.Context) models.Result[[]models.CategoryNode] {
	resp, failure := c.call(ctx, "mainCategoryList", url.Values{})
	if failure != nil {
		return models.Fail[[]models.CategoryNode](failure)
	}

	var nodes []models.CategoryNode
	if resp.Body.Items != nil {
		for _, it := range resp.Body.Items.Item {
			nodes = append(nodes, models.CategoryNode{Code: it.CategoryCode, Label: it.CategoryNm})
		}
	}
	return categoryResult(nodes)
}

// MiddleCategories lists the categories under a main category code.
func (c *NongsaroClient) MiddleCategories(ctx context.Context, mainCode string) models.Result[[]models.CategoryNode] {
	if strings.TrimSpace(mainCode) == "" {
		return models.Empty[[]models.CategoryNode]()
	}

	params := url.Values{}
	params.Set("categoryCode", mainCode)
	resp, failure := c.call(ctx, "middleCategoryList", params)
	if failure != nil {
		return models.Fail[[]models.CategoryNode](failure)
	}

	var nodes []models.CategoryNode
	if resp.Body.Items != nil {
		for _, it := range resp.Body.Items.Item {
			nodes = append(nodes, models.CategoryNode{Code: it.Code, Label: it.CodeNm})
		}
	}
	return categoryResult(nodes)
}

func categoryResult(nodes []models.CategoryNode) models.Result[[]models.CategoryNode] {
	list := models.NewCategoryList(nodes)
	if len(list) == 1 {
		return models.Empty[[]models.CategoryNode]()
	}
	return models.Success(list)
}

// SearchVarieties runs one varietyList search for a single name candidate.
// Zero matches is Empty; a non-"00" result code is a Provider failure.
func (c *NongsaroClient) SearchVarieties(ctx context.Context, name, categoryCode string) models.Result[string] {
	params := url.Values{}
	params.Set("categoryCode", categoryCode)
	params.Set("svcCodeNm", name)
	params.Set("numOfRows", strconv.Itoa(varietyPageSize))
	params.Set("pageNo", "1")

	resp, failure := c.call(ctx, "varietyList", params)
	if failure != nil {
		return models.Fail[string](failure)
	}

	items := resp.Body.Items
	if items == nil {
		return models.Empty[string]()
	}
	total, err := strconv.Atoi(strings.TrimSpace(items.TotalCount))
	if err != nil || total <= 0 || len(items.Item) == 0 {
		return models.Empty[string]()
	}

	texts := make([]string, 0, len(items.Item))
	for _, it := range items.Item {
		svcName := strings.TrimSpace(it.SvcCodeNm)
		if svcName == "" {
			svcName = "N/A"
		}
		info := strings.TrimSpace(it.MainChartrInfo)
		if info == "" {
			info = "정보 없음"
		}
		texts = append(texts, fmt.Sprintf("[%s] 주요특성: %s", svcName, info))
	}

	c.logger.Debug("Variety search matched",
		zap.String("candidate", name),
		zap.String("category", categoryCode),
		zap.Int("total", total))
	return models.Success(strings.TrimSpace(strings.Join(texts, "\n\n")))
}
