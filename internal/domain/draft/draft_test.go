package draft

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
)

type fakePreviews struct {
	next int
	live map[string]bool
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{live: map[string]bool{}}
}

func (f *fakePreviews) Put(data []byte, contentType string) string {
	f.next++
	ref := fmt.Sprintf("ref-%d", f.next)
	f.live[ref] = true
	return ref
}

func (f *fakePreviews) Release(ref string) {
	delete(f.live, ref)
}

func pngUpload(t *testing.T) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Upload{Filename: "avatar.png", Data: buf.Bytes()}
}

func jpegUpload(t *testing.T) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return &Upload{Filename: "cover.jpg", Data: buf.Bytes()}
}

func strPtr(s string) *string { return &s }

func fullRecord() *portfolio.Record {
	return &portfolio.Record{
		Profile: portfolio.Profile{Name: "Ada", Title: "Engineer", Description: "Builds things"},
		Portfolios: []portfolio.ExperienceEntry{
			{ID: 100, Position: "Dev", Company: "Acme", StartDate: "2020-01", EndDate: "2021-01", Description: "Work"},
		},
		Images: portfolio.Images{
			Background: strPtr("data:image/png;base64,AAAA"),
			Profile:    strPtr("data:image/jpeg;base64,BBBB"),
		},
	}
}

func TestNew_PlaceholderIsInvalidWithoutImages(t *testing.T) {
	d := New(portfolio.NewPlaceholderRecord(), newFakePreviews())

	v := d.Validation()
	assert.False(t, v.IsValid)
	assert.Equal(t, []string{"images.background", "images.profile"}, v.Keys())
	assert.Equal(t, "John Doe", d.Profile().Name)
	require.Len(t, d.Entries(), 1)
	assert.Equal(t, "2023-01", d.Entries()[0].StartDate)
	assert.Equal(t, "2025-01", d.Entries()[0].EndDate)
}

func TestNew_DoesNotAliasBaseline(t *testing.T) {
	rec := fullRecord()
	d := New(rec, newFakePreviews())

	d.SetEntryField(100, EntryCompany, "Other")
	d.SetProfileField(ProfileName, "Grace")

	assert.Equal(t, "Acme", rec.Portfolios[0].Company)
	assert.Equal(t, "Ada", rec.Profile.Name)
}

func TestValidate_BlankFields(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	require.True(t, d.Validation().IsValid)

	v := d.SetProfileField(ProfileTitle, "   ")
	assert.False(t, v.IsValid)
	assert.Equal(t, "Title is required", v.Errors["profile.title"])

	v = d.SetProfileField(ProfileTitle, "Engineer")
	assert.True(t, v.IsValid)

	v = d.SetEntryField(100, EntryStartDate, "")
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "portfolios.100.startDate")
}

func TestValidate_EveryEntryFieldRequired(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())

	e, v, err := d.AddEntry()
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	for _, f := range []string{"position", "company", "startDate", "endDate", "description"} {
		assert.Contains(t, v.Errors, fmt.Sprintf("portfolios.%d.%s", e.ID, f))
	}

	for _, f := range []EntryField{EntryPosition, EntryCompany, EntryStartDate, EntryEndDate, EntryDescription} {
		v = d.SetEntryField(e.ID, f, "x")
	}
	assert.True(t, v.IsValid)
}

func TestValidationSnapshotIsNeverStale(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())

	returned := d.SetProfileField(ProfileName, "")
	assert.Equal(t, returned, d.Validation())
	assert.Equal(t, d.Validate(), d.Validation())
}

func TestSetEntryField_UnknownIDIsNoop(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	before := d.Entries()

	v := d.SetEntryField(999, EntryCompany, "Nope")

	assert.Equal(t, before, d.Entries())
	assert.True(t, v.IsValid)
}

func TestAddEntry_CapAtTen(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := New(&portfolio.Record{}, newFakePreviews(), WithClock(func() time.Time { return clock }))

	ids := map[int64]bool{}
	for i := 0; i < portfolio.MaxEntries; i++ {
		e, _, err := d.AddEntry()
		require.NoError(t, err)
		assert.False(t, ids[e.ID], "duplicate id %d", e.ID)
		ids[e.ID] = true
	}

	before := d.Entries()
	_, _, err := d.AddEntry()
	assert.ErrorIs(t, err, ErrEntryLimit)
	assert.Equal(t, before, d.Entries())
	assert.Len(t, d.Entries(), portfolio.MaxEntries)
}

func TestAddEntry_IDsIncreaseAfterExisting(t *testing.T) {
	rec := fullRecord()
	rec.Portfolios[0].ID = 5_000_000_000_000
	d := New(rec, newFakePreviews(), WithClock(func() time.Time { return time.UnixMilli(10) }))

	e, _, err := d.AddEntry()
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_001), e.ID)
}

func TestRemoveEntry(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	a, _, _ := d.AddEntry()
	b, _, _ := d.AddEntry()

	d.RemoveEntry(a.ID)
	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(100), entries[0].ID)
	assert.Equal(t, b.ID, entries[1].ID)

	d.RemoveEntry(12345)
	assert.Len(t, d.Entries(), 2)
}

func TestSetImage_RejectsOversize(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	big := pngUpload(t)
	big.Data = append(big.Data, make([]byte, MaxUploadBytes)...)

	_, err := d.SetImage(portfolio.SlotProfile, big)

	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.True(t, IsRejectedUpload(err))
	assert.Equal(t, ImageSlot{Status: StatusInitial}, d.Slot(portfolio.SlotProfile))
}

func TestSetImage_RejectsWrongType(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	gif := &Upload{Filename: "anim.gif", Data: []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")}

	_, err := d.SetImage(portfolio.SlotBackground, gif)

	assert.ErrorIs(t, err, ErrUnsupportedImageType)
	assert.Equal(t, StatusInitial, d.Slot(portfolio.SlotBackground).Status)
}

func TestSetImage_RejectionKeepsPendingFile(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	_, err := d.SetImage(portfolio.SlotBackground, pngUpload(t))
	require.NoError(t, err)
	before := d.Slot(portfolio.SlotBackground)

	_, err = d.SetImage(portfolio.SlotBackground, &Upload{Filename: "x.txt", Data: []byte("hello")})

	assert.ErrorIs(t, err, ErrUnsupportedImageType)
	assert.Equal(t, before, d.Slot(portfolio.SlotBackground))
}

func TestSetImage_AcceptsJPEGAndRecordsSniffedType(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())

	_, err := d.SetImage(portfolio.SlotProfile, jpegUpload(t))
	require.NoError(t, err)

	s := d.Slot(portfolio.SlotProfile)
	assert.Equal(t, StatusNew, s.Status)
	require.NotNil(t, s.Pending)
	assert.Equal(t, "image/jpeg", s.Pending.ContentType)
	assert.NotEmpty(t, s.PreviewRef)
}

func TestSlotTransitions(t *testing.T) {
	cases := []struct {
		from     SlotStatus
		withFile bool
		want     SlotStatus
	}{
		{StatusInitial, true, StatusNew},
		{StatusInitial, false, StatusRemoved},
		{StatusNew, true, StatusNew},
		{StatusNew, false, StatusRemoved},
		{StatusRemoved, true, StatusNew},
		{StatusRemoved, false, StatusRemoved},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/file=%v", tc.from, tc.withFile), func(t *testing.T) {
			d := New(fullRecord(), newFakePreviews())
			moveTo(t, d, portfolio.SlotBackground, tc.from)

			var up *Upload
			if tc.withFile {
				up = pngUpload(t)
			}
			_, err := d.SetImage(portfolio.SlotBackground, up)
			require.NoError(t, err)

			s := d.Slot(portfolio.SlotBackground)
			assert.Equal(t, tc.want, s.Status)
			assert.Equal(t, tc.withFile, s.Pending != nil)
			assert.Equal(t, tc.withFile, s.PreviewRef != "")
		})
	}

	// Rejected uploads are the third operation: state stays where it was.
	for _, from := range []SlotStatus{StatusInitial, StatusNew, StatusRemoved} {
		t.Run(fmt.Sprintf("%s/rejected", from), func(t *testing.T) {
			d := New(fullRecord(), newFakePreviews())
			moveTo(t, d, portfolio.SlotBackground, from)
			before := d.Slot(portfolio.SlotBackground)

			_, err := d.SetImage(portfolio.SlotBackground, &Upload{Data: []byte("not an image")})
			require.Error(t, err)
			assert.Equal(t, before, d.Slot(portfolio.SlotBackground))
		})
	}
}

func moveTo(t *testing.T, d *Draft, slot portfolio.Slot, status SlotStatus) {
	t.Helper()
	switch status {
	case StatusNew:
		_, err := d.SetImage(slot, pngUpload(t))
		require.NoError(t, err)
	case StatusRemoved:
		_, err := d.SetImage(slot, nil)
		require.NoError(t, err)
	}
	require.Equal(t, status, d.Slot(slot).Status)
}

func TestSetImage_ReleasesSupersededPreviews(t *testing.T) {
	previews := newFakePreviews()
	d := New(fullRecord(), previews)

	for i := 0; i < 5; i++ {
		_, err := d.SetImage(portfolio.SlotProfile, pngUpload(t))
		require.NoError(t, err)
	}
	assert.Len(t, previews.live, 1)

	_, err := d.SetImage(portfolio.SlotProfile, nil)
	require.NoError(t, err)
	assert.Empty(t, previews.live)
	assert.Nil(t, d.Slot(portfolio.SlotProfile).Pending)
}

func TestClose_ReleasesAllPreviews(t *testing.T) {
	previews := newFakePreviews()
	d := New(fullRecord(), previews)
	_, _ = d.SetImage(portfolio.SlotProfile, pngUpload(t))
	_, _ = d.SetImage(portfolio.SlotBackground, jpegUpload(t))
	require.Len(t, previews.live, 2)

	d.Close()

	assert.Empty(t, previews.live)
}

func TestRemovedSlotBlocksValidity(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	require.True(t, d.Validation().IsValid)

	v, err := d.SetImage(portfolio.SlotBackground, nil)
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	assert.Equal(t, []string{"images.background"}, v.Keys())

	v, err = d.SetImage(portfolio.SlotBackground, pngUpload(t))
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestMinimalValidDraft(t *testing.T) {
	d := New(&portfolio.Record{}, newFakePreviews())
	d.SetProfileField(ProfileName, "Ada")
	d.SetProfileField(ProfileTitle, "Engineer")
	v := d.SetProfileField(ProfileDescription, "Builds things")
	assert.False(t, v.IsValid)

	_, err := d.SetImage(portfolio.SlotBackground, jpegUpload(t))
	require.NoError(t, err)
	v, err = d.SetImage(portfolio.SlotProfile, pngUpload(t))
	require.NoError(t, err)

	assert.True(t, v.IsValid)
	assert.Empty(t, d.Entries())
}

func TestPreview(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())
	_, _ = d.SetImage(portfolio.SlotProfile, pngUpload(t))
	d.SetProfileField(ProfileName, "")

	p := d.Preview()

	assert.False(t, p.Validation.IsValid)
	assert.Equal(t, "", p.Profile.Name)
	bg := p.Images[portfolio.SlotBackground]
	assert.Equal(t, StatusInitial, bg.Status)
	require.NotNil(t, bg.DataURL)
	assert.Equal(t, "data:image/png;base64,AAAA", *bg.DataURL)
	pr := p.Images[portfolio.SlotProfile]
	assert.Equal(t, StatusNew, pr.Status)
	assert.Nil(t, pr.DataURL)
	assert.NotEmpty(t, pr.PreviewRef)

	_, _ = d.SetImage(portfolio.SlotBackground, nil)
	assert.Equal(t, PreviewImage{Status: StatusRemoved}, d.Preview().Images[portfolio.SlotBackground])
}

func TestSnapshotCarriesBaselineImages(t *testing.T) {
	rec := fullRecord()
	d := New(rec, newFakePreviews())
	_, _ = d.SetImage(portfolio.SlotProfile, pngUpload(t))

	snap := d.Snapshot()

	assert.Equal(t, rec, snap)
}

func TestParseFields(t *testing.T) {
	f, err := ParseProfileField("title")
	require.NoError(t, err)
	assert.Equal(t, ProfileTitle, f)
	_, err = ParseProfileField("email")
	assert.Error(t, err)

	ef, err := ParseEntryField("endDate")
	require.NoError(t, err)
	assert.Equal(t, EntryEndDate, ef)
	_, err = ParseEntryField("end_date")
	assert.Error(t, err)
}

// apngUpload inserts an acTL chunk right after IHDR, which marks the file as animated.
func apngUpload(t *testing.T) *Upload {
	t.Helper()
	raw := pngUpload(t).Data
	const ihdrEnd = 8 + 4 + 4 + 13 + 4

	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], 1) // frames
	binary.BigEndian.PutUint32(body[4:8], 0) // loop forever
	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(body)))
	chunk = append(chunk, "acTL"...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(append([]byte("acTL"), body...)))

	data := append([]byte{}, raw[:ihdrEnd]...)
	data = append(data, chunk...)
	data = append(data, raw[ihdrEnd:]...)
	return &Upload{Filename: "anim.png", Data: data}
}

func TestCheckUpload_AcceptsAnimatedPNG(t *testing.T) {
	contentType, err := CheckUpload(apngUpload(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
}

func TestSetImage_AcceptsAnimatedPNG(t *testing.T) {
	d := New(fullRecord(), newFakePreviews())

	_, err := d.SetImage(portfolio.SlotBackground, apngUpload(t))

	require.NoError(t, err)
	s := d.Slot(portfolio.SlotBackground)
	assert.Equal(t, StatusNew, s.Status)
	assert.Equal(t, "image/png", s.Pending.ContentType)
}
