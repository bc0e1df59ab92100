package zonefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack/designate-sub004/internal/storage"
)

func intPtr(n int) *int { return &n }

func testZone() (*storage.Zone, []storage.RecordSet) {
	zone := &storage.Zone{Name: "example.com.", TTL: 3600, Serial: 1700000000, Email: "admin@example.com"}
	sets := []storage.RecordSet{
		{Name: "www.example.com.", Type: "A", TTL: intPtr(300), Records: []storage.Record{
			{Data: "192.0.2.1"}, {Data: "192.0.2.2"},
		}},
		{Name: "example.com.", Type: "MX", Records: []storage.Record{
			{Data: "10 mail.example.com."},
		}},
		{Name: "example.com.", Type: "NS", Records: []storage.Record{
			{Data: "ns1.example.org."},
		}},
		{Name: "example.com.", Type: "SOA", Records: []storage.Record{
			{Data: "ns1.example.org. admin.example.com. 1700000000 3600 600 86400 3600"},
		}},
		{Name: "gone.example.com.", Type: "TXT", Records: []storage.Record{
			{Data: `"stale"`, Action: storage.ActionDelete},
		}},
	}
	return zone, sets
}

func TestRender(t *testing.T) {
	zone, sets := testZone()
	text := Render(zone, sets)

	assert.Contains(t, text, "$ORIGIN example.com.\n")
	assert.Contains(t, text, "$TTL 3600\n")
	assert.Contains(t, text, "www.example.com. 300 IN A 192.0.2.1\n")
	assert.Contains(t, text, "example.com. 3600 IN MX 10 mail.example.com.\n")
	// Records marked for deletion are not exported.
	assert.NotContains(t, text, "gone.example.com.")
	// SOA comes first.
	lines := text
	assert.Less(t, indexOf(lines, "SOA"), indexOf(lines, "MX"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestParse(t *testing.T) {
	text := `$ORIGIN example.com.
$TTL 3600
example.com. 3600 IN SOA ns1.example.org. admin.example.com. 1700000000 3600 600 86400 3600
example.com. 3600 IN NS ns1.example.org.
www.example.com. 300 IN A 192.0.2.1
www.example.com. 300 IN A 192.0.2.2
example.com. 3600 IN MX 10 mail.example.com.
`
	parsed, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "example.com.", parsed.Name)
	assert.Equal(t, "admin@example.com", parsed.Email)

	// SOA and apex NS are dropped; A and MX survive.
	require.Len(t, parsed.Sets, 2)
	a := parsed.Sets[0]
	assert.Equal(t, "www.example.com.", a.Name)
	assert.Equal(t, "A", a.Type)
	assert.Equal(t, 300, a.TTL)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2"}, a.Records)

	mx := parsed.Sets[1]
	assert.Equal(t, "MX", mx.Type)
	assert.Equal(t, []string{"10 mail.example.com."}, mx.Records)
}

func TestParseRejectsMissingSOA(t *testing.T) {
	_, err := Parse("www.example.com. 300 IN A 192.0.2.1\n")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("this is not a zonefile")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	zone, sets := testZone()
	parsed, err := Parse(Render(zone, sets))
	require.NoError(t, err)

	assert.Equal(t, zone.Name, parsed.Name)
	assert.Equal(t, "admin@example.com", parsed.Email)

	types := map[string]bool{}
	for _, rs := range parsed.Sets {
		types[rs.Type] = true
	}
	// SOA and apex NS are regenerated on import, everything else survives.
	assert.Equal(t, map[string]bool{"A": true, "MX": true}, types)
}
