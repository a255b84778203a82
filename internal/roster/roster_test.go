package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\ufeffHọ và tên,Chức vụ - Đơn vị,Lời nhắn,Ảnh\n" +
	"Nguyễn Văn A,Bí thư Đoàn phường,Chúc đại hội thành công,a.jpg\n" +
	",,bỏ qua,\n" +
	"Trần Thị B,Ủy viên BCH,\"Dòng 1\nDòng 2\",https://example.org/b.png\n" +
	"Lê Văn C\n"

func TestParseVietnameseHeaders(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Line: 2, Name: "Nguyễn Văn A", RoleUnit: "Bí thư Đoàn phường", Message: "Chúc đại hội thành công", Photo: "a.jpg"}, entries[0])
	assert.Equal(t, "Dòng 1\nDòng 2", entries[1].Message)
	assert.Equal(t, Entry{Line: 6, Name: "Lê Văn C"}, entries[2])
}

func TestParseEnglishHeaders(t *testing.T) {
	entries, err := Parse(strings.NewReader("name,role,message\nAn,Member,Hi\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Member", entries[0].RoleUnit)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}

func TestLoadResolvesPhotoPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), entries[0].Photo)
	assert.Equal(t, "https://example.org/b.png", entries[1].Photo)

	_, err = Load(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestFilterIgnoresCaseAndDiacritics(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	got := Filter(entries, "nguyen doan")
	require.Len(t, got, 1)
	assert.Equal(t, "Nguyễn Văn A", got[0].Name)

	assert.Len(t, Filter(entries, "VĂN"), 2)
	assert.Len(t, Filter(entries, "  "), 3)
	assert.Empty(t, Filter(entries, "khong co"))
}
