package nesdc

import (
	"nesdc-backend/lib/htmlutil"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAttachmentUrl(t *testing.T) {
	base := mustParseUrl(t, "https://www.nesdc.go.kr")

	testCases := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{
			name:     "view call",
			raw:      "view('A1','2','B','K'); return false;",
			expected: "https://www.nesdc.go.kr/portal/cmm/fms/FileDown.do?atchFileId=A1&fileSn=2&bbsId=B&bbsKey=K",
			ok:       true,
		},
		{
			name:     "view call with double quotes",
			raw:      `javascript:view("FILE_0001", "0", "B0000005", "1234")`,
			expected: "https://www.nesdc.go.kr/portal/cmm/fms/FileDown.do?atchFileId=FILE_0001&fileSn=0&bbsId=B0000005&bbsKey=1234",
			ok:       true,
		},
		{
			name: "view call with too few arguments",
			raw:  "javascript:view('A1','2','B')",
			ok:   false,
		},
		{
			name:     "file download with absolute url",
			raw:      "fileDown('https://www.nesdc.go.kr/files/result.pdf')",
			expected: "https://www.nesdc.go.kr/files/result.pdf",
			ok:       true,
		},
		{
			name:     "file download with path argument",
			raw:      "javascript:fnFileDown('/portal/cmm/fms/FileDown.do?atchFileId=X', 'ignored')",
			expected: "https://www.nesdc.go.kr/portal/cmm/fms/FileDown.do?atchFileId=X",
			ok:       true,
		},
		{
			name:     "file download path literal",
			raw:      "/portal/fileDown.do?id=1",
			expected: "https://www.nesdc.go.kr/portal/fileDown.do?id=1",
			ok:       true,
		},
		{
			name: "other script",
			raw:  "javascript:alert('준비중')",
			ok:   false,
		},
		{
			name:     "relative path",
			raw:      "  /upload/result.pdf ",
			expected: "https://www.nesdc.go.kr/upload/result.pdf",
			ok:       true,
		},
		{
			name:     "absolute url",
			raw:      "http://files.example.com/a.pdf",
			expected: "http://files.example.com/a.pdf",
			ok:       true,
		},
		{
			name: "bare word",
			raw:  "result.pdf",
			ok:   false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			resolved, ok := ResolveAttachmentUrl(base, test.raw)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, resolved)
		})
	}
}

func TestRawReference(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		expected string
		ok       bool
	}{
		{
			name:     "data attribute wins",
			markup:   `<a href="/a.pdf" onclick="view('1','2','3','4')" data-href="/b.pdf">x</a>`,
			expected: "/b.pdf",
			ok:       true,
		},
		{
			name:     "first data attribute wins",
			markup:   `<a data-file="/d.pdf" data-url="/c.pdf">x</a>`,
			expected: "/c.pdf",
			ok:       true,
		},
		{
			name:     "script handler on inert href",
			markup:   `<a href="javascript:void(0);" onclick="view('1','2','3','4')">x</a>`,
			expected: "view('1','2','3','4')",
			ok:       true,
		},
		{
			name:     "href over script handler",
			markup:   `<a href="/a.pdf" onclick="track()">x</a>`,
			expected: "/a.pdf",
			ok:       true,
		},
		{
			name:     "inert href alone",
			markup:   `<a href="javascript:;">x</a>`,
			expected: "",
			ok:       false,
		},
		{
			name:     "script handler without href",
			markup:   `<a onclick="fileDown('/x')">x</a>`,
			expected: "fileDown('/x')",
			ok:       true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := htmlutil.LoadString(test.markup)
			require.NoError(t, err)

			raw, ok := RawReference(doc.Find("a"))
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, raw)
		})
	}
}

func TestIsRootUrl(t *testing.T) {
	base := mustParseUrl(t, "https://www.nesdc.go.kr")

	require.True(t, IsRootUrl(base, "https://www.nesdc.go.kr"))
	require.True(t, IsRootUrl(base, "https://www.nesdc.go.kr/"))
	require.True(t, IsRootUrl(base, "https://www.nesdc.go.kr/?menuNo=1"))
	require.False(t, IsRootUrl(base, "https://www.nesdc.go.kr/upload/a.pdf"))
	require.False(t, IsRootUrl(base, "https://example.com/"))
}

func TestFindResultFileUrl(t *testing.T) {
	base := mustParseUrl(t, "https://www.nesdc.go.kr")

	testCases := []struct {
		name     string
		markup   string
		expected string
		ok       bool
	}{
		{
			name: "view call in real file container",
			markup: `
				<a href="/portal/main.do">메인</a>
				<div id="realfile_1"><a href="#" onclick="view('A1','2','B','K'); return false;">결과분석.hwp</a></div>`,
			expected: "https://www.nesdc.go.kr/portal/cmm/fms/FileDown.do?atchFileId=A1&fileSn=2&bbsId=B&bbsKey=K",
			ok:       true,
		},
		{
			name: "pdf wins over an earlier download",
			markup: `
				<div class="file"><a href="#" onclick="fileDown('/portal/files/a.hwp')">a.hwp</a></div>
				<p><a href="/upload/result.pdf">결과</a></p>`,
			expected: "https://www.nesdc.go.kr/upload/result.pdf",
			ok:       true,
		},
		{
			name: "first download is kept when there is no pdf",
			markup: `
				<div class="file">
					<a href="#" onclick="fileDown('/portal/files/a.hwp')">a.hwp</a>
					<a href="#" onclick="fileDown('/portal/files/b.hwp')">b.hwp</a>
				</div>`,
			expected: "https://www.nesdc.go.kr/portal/files/a.hwp",
			ok:       true,
		},
		{
			name: "site root is rejected",
			markup: `
				<div class="file"><a href="#" onclick="fileDown('/')">x</a></div>
				<a href="https://www.nesdc.go.kr/">home</a>`,
			ok: false,
		},
		{
			name:   "plain links are not attachments",
			markup: `<a href="/portal/bbs/B0000005/list.do">목록</a>`,
			ok:     false,
		},
		{
			name:   "no links",
			markup: `<p>첨부파일 없음</p>`,
			ok:     false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := htmlutil.LoadString(test.markup)
			require.NoError(t, err)

			link, ok := FindResultFileUrl(doc, base)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, link)
		})
	}
}
