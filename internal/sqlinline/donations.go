package sqlinline

const QInsertDonation = `--sql 37efc3f0-53f8-400b-80f3-890b1cc039e4
insert into "Donation" (amount, "userId", "campaignId")
values ($1::bigint, $2::bigint, $3::bigint)
returning id, timestamp;
`

const QListDonationsByCampaign = `--sql 3b5c9470-ed51-428d-8d8c-32eca74f7492
select id, amount, timestamp, "userId", "campaignId"
from "Donation"
where "campaignId" = $1::bigint
order by id asc;
`

const QHasDonated = `--sql 793209e5-7bd3-4e1b-a5db-e6b72e2d20ff
select exists (
    select 1 from "Donation"
    where "userId" = $1::bigint and "campaignId" = $2::bigint
);
`
