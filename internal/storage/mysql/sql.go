package mysql

// A snapshot replaces the whole table inside one transaction.
const deleteHotelsSQL = `DELETE FROM hotels`

const insertHotelsPrefix = "INSERT INTO hotels\n  (id, position, slug, link, name, address, rate, occupancy, rating, amenities, description, attachments_url, raw)\nVALUES "

const insertHotelsRow = "(?,?,?,?,?,?,?,?,?,?,?,?,?)"

// Rows per INSERT; 13 params each keeps us well under the placeholder limit.
const insertBatch = 200

// position preserves fetch order, which the unsorted list relies on.
const loadHotelsSQL = `
SELECT id, slug, link, name, address, rate, occupancy, rating, amenities, description, attachments_url, raw
FROM hotels
ORDER BY position
`

const upsertImagesSQL = `
INSERT INTO hotel_images (hotel_id, images)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  images     = VALUES(images),
  updated_at = CURRENT_TIMESTAMP
`

const loadImagesSQL = `SELECT images FROM hotel_images WHERE hotel_id = ?`
