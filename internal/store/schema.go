package store

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS students (
	student_id        BIGSERIAL PRIMARY KEY,
	full_name         TEXT NOT NULL,
	roll_no           TEXT NOT NULL,
	standard          TEXT,
	stream            TEXT,
	email             TEXT,
	phone             TEXT,
	institute_id      TEXT NOT NULL,
	registered_by     TEXT,
	registration_date DATE,
	status            TEXT NOT NULL DEFAULT 'ACTIVE',
	is_active         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (institute_id, roll_no)
);

CREATE TABLE IF NOT EXISTS faculty (
	faculty_id   BIGSERIAL PRIMARY KEY,
	full_name    TEXT NOT NULL,
	email        TEXT,
	institute_id TEXT NOT NULL,
	stream       TEXT,
	status       TEXT NOT NULL DEFAULT 'ACTIVE',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS faculty_classes (
	faculty_id BIGINT NOT NULL REFERENCES faculty(faculty_id),
	class_name TEXT NOT NULL,
	PRIMARY KEY (faculty_id, class_name)
);

CREATE TABLE IF NOT EXISTS faculty_students (
	faculty_id BIGINT NOT NULL REFERENCES faculty(faculty_id),
	student_id BIGINT NOT NULL REFERENCES students(student_id),
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (faculty_id, student_id)
);

CREATE TABLE IF NOT EXISTS presence_records (
	id              UUID PRIMARY KEY,
	student_id      BIGINT NOT NULL REFERENCES students(student_id),
	attendance_date DATE NOT NULL,
	institute_id    TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, attendance_date)
);

CREATE INDEX IF NOT EXISTS idx_presence_student_date ON presence_records(student_id, attendance_date);
CREATE INDEX IF NOT EXISTS idx_students_institute    ON students(institute_id);
`

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
