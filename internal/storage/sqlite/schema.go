package sqlite

import "github.com/clinicaldwh/drwh/internal/storage/migrations"

// Table names follow the warehouse naming used by the downstream query tools.
const (
	tablePatient  = "DWH_PATIENT"
	tableHistory  = "DWH_PATIENT_IPPHIST"
	tableDocument = "DWH_DOCUMENT"
	tableUpload   = "DWH_UPLOAD"
)

// schemaMigrations is the ordered schema history of the warehouse.
var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "patient, identifier history and document tables",
		Up: `
CREATE TABLE IF NOT EXISTS DWH_PATIENT (
    PATIENT_NUM INTEGER PRIMARY KEY,
    LASTNAME TEXT NOT NULL,
    FIRSTNAME TEXT NOT NULL,
    BIRTH_DATE TEXT,
    SEX TEXT NOT NULL DEFAULT '',
    MAIDEN_NAME TEXT,
    RESIDENCE_ADDRESS TEXT NOT NULL DEFAULT '',
    PHONE_NUMBER TEXT NOT NULL DEFAULT '',
    ZIP_CODE TEXT NOT NULL DEFAULT '',
    RESIDENCE_CITY TEXT NOT NULL DEFAULT '',
    DEATH_DATE TEXT,
    RESIDENCE_COUNTRY TEXT NOT NULL DEFAULT '',
    DEATH_CODE INTEGER NOT NULL DEFAULT 0 CHECK(DEATH_CODE IN (0, 1)),
    UPLOAD_ID INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS DWH_PATIENT_IPPHIST (
    PATIENT_NUM INTEGER NOT NULL,
    HOSPITAL_PATIENT_ID TEXT NOT NULL,
    ORIGIN_PATIENT_ID TEXT NOT NULL DEFAULT '',
    MASTER_PATIENT_ID INTEGER NOT NULL DEFAULT 0 CHECK(MASTER_PATIENT_ID IN (0, 1)),
    UPLOAD_ID INTEGER NOT NULL,
    FOREIGN KEY (PATIENT_NUM) REFERENCES DWH_PATIENT(PATIENT_NUM)
);

CREATE INDEX IF NOT EXISTS idx_ipphist_hospital_id
    ON DWH_PATIENT_IPPHIST(HOSPITAL_PATIENT_ID, MASTER_PATIENT_ID);
CREATE INDEX IF NOT EXISTS idx_ipphist_patient ON DWH_PATIENT_IPPHIST(PATIENT_NUM);

CREATE TABLE IF NOT EXISTS DWH_DOCUMENT (
    PATIENT_NUM INTEGER NOT NULL,
    DOCUMENT_NUM TEXT NOT NULL,
    DOCUMENT_DATE TEXT,
    UPDATE_DATE TEXT NOT NULL,
    DOCUMENT_ORIGIN_CODE TEXT NOT NULL,
    DISPLAYED_TEXT TEXT NOT NULL DEFAULT '',
    AUTHOR TEXT,
    FOREIGN KEY (PATIENT_NUM) REFERENCES DWH_PATIENT(PATIENT_NUM)
);

CREATE INDEX IF NOT EXISTS idx_document_patient ON DWH_DOCUMENT(PATIENT_NUM);
`,
		Down: `
DROP TABLE IF EXISTS DWH_DOCUMENT;
DROP TABLE IF EXISTS DWH_PATIENT_IPPHIST;
DROP TABLE IF EXISTS DWH_PATIENT;
`,
	},
	{
		Version:     2,
		Description: "upload journal and upload id counter",
		Up: `
CREATE TABLE IF NOT EXISTS DWH_UPLOAD (
    UPLOAD_ID INTEGER PRIMARY KEY,
    RUN_ID TEXT NOT NULL,
    SOURCE TEXT NOT NULL DEFAULT '',
    STARTED_AT TEXT NOT NULL,
    FINISHED_AT TEXT,
    PATIENT_COUNT INTEGER NOT NULL DEFAULT 0,
    HISTORY_COUNT INTEGER NOT NULL DEFAULT 0,
    DOCUMENT_COUNT INTEGER NOT NULL DEFAULT 0
);

-- Survives resets so upload ids never repeat.
CREATE TABLE IF NOT EXISTS DWH_UPLOAD_COUNTER (
    NAME TEXT PRIMARY KEY,
    LAST_ID INTEGER NOT NULL DEFAULT 0
);
`,
		Down: `
DROP TABLE IF EXISTS DWH_UPLOAD_COUNTER;
DROP TABLE IF EXISTS DWH_UPLOAD;
`,
	},
}
