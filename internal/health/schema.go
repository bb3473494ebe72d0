package health

// Schema creates the tables used by Repo and PgProvider.
const Schema = `
CREATE TABLE IF NOT EXISTS health_sample
(
    id        BIGSERIAL PRIMARY KEY,
    device_id VARCHAR                  NOT NULL,
    metric    VARCHAR                  NOT NULL,
    timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
    value     DOUBLE PRECISION         NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_health_sample_device_metric_ts
    ON health_sample USING btree (device_id, metric, timestamp);

CREATE TABLE IF NOT EXISTS health_workout
(
    id            BIGSERIAL PRIMARY KEY,
    device_id     VARCHAR                  NOT NULL,
    activity_type VARCHAR                  NOT NULL,
    start_at      TIMESTAMP WITH TIME ZONE NOT NULL,
    end_at        TIMESTAMP WITH TIME ZONE NOT NULL,
    energy_kcal   DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS ix_health_workout_device_start
    ON health_workout USING btree (device_id, start_at);

CREATE TABLE IF NOT EXISTS health_authorization
(
    device_id VARCHAR NOT NULL,
    metric    VARCHAR NOT NULL,
    PRIMARY KEY (device_id, metric)
);
`
