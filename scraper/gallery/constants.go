package gallery

import "time"

const (
	// Spoofed browser identity. The gallery serves a stripped mobile page
	// (and eventually 403s) to clients that look like bots.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"

	requestTimeout = 10 * time.Second

	// Rendered comment extraction.
	commentWaitTimeout = 10 * time.Second
	commentSettleDelay = 2 * time.Second
	maxComments        = 10

	// Author placeholder when the writer cell carries no nickname.
	anonymousAuthor = "anonymous"

	// Marker prepended to reply comments so flat consumers keep the structure.
	replyPrefix = "└ "
)

// DOM selectors for the gallery's listing and view pages.
const (
	selListRow       = "tr.ub-content"
	selListNum       = "td.gall_num"
	selListTitle     = "td.gall_tit a"
	selListWriter    = "td.gall_writer"
	selListDate      = "td.gall_date"
	selListViews     = "td.gall_count"
	selListRecommend = "td.gall_recommend"

	selDetailTitle   = "span.title_subject"
	selDetailWriter  = "div.gall_writer"
	selDetailContent = "div.write_div"

	selCommentWrap  = "div.comment_wrap"
	selCommentTotal = "#comment_total"
	selCommentItem  = "ul.cmt_list li.ub-content"
	selCommentText  = "p.usertxt"

	// List items that are sticker/promo content rather than text comments.
	classSticker = "comment_dccon"
	// Button label the comment widget injects next to sticker comments.
	stickerViewLabel = "sticker-view"
)
