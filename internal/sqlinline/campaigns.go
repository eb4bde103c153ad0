package sqlinline

const QInsertCampaign = `--sql fdf1efc3-8fce-4845-a620-f3e3443fb651
insert into "Campaign" (title, description, "isActive", status, "goalAmount", "amountRaised", "userId")
values ($1::text, $2::text, true, 'PENDING', $3::bigint, 0, $4::bigint)
returning id, title, description, "isActive", status::text, "createdAt", "goalAmount", "amountRaised", "userId";
`

const QSelectCampaignByID = `--sql b4775ba8-e12c-4d88-b447-6194a9f0451f
select id, title, description, "isActive", status::text, "createdAt", "goalAmount", "amountRaised", "userId"
from "Campaign"
where id = $1::bigint;
`

const QSelectCampaignForUpdate = `--sql 6e597dfd-1006-4715-8d31-280e4f90efa8
select id, title, description, "isActive", status::text, "createdAt", "goalAmount", "amountRaised", "userId"
from "Campaign"
where id = $1::bigint
for update;
`

const QListCampaigns = `--sql 15081744-7c28-4078-88d0-d455150231d0
select id, title, description, "isActive", status::text, "createdAt", "goalAmount", "amountRaised", "userId"
from "Campaign"
where ($1::text is null or status = $1::text::"CampaignStatus")
  and ($2::bigint is null or "userId" = $2::bigint)
order by id desc
limit $3::int offset $4::int;
`

const QIncrementAmountRaised = `--sql 1ec89dab-152e-45f6-9684-7811b9238d1a
update "Campaign"
set "amountRaised" = "amountRaised" + $2::bigint
where id = $1::bigint
returning "amountRaised";
`

const QSetAmountRaised = `--sql 7675b592-69d9-442c-b8ba-d837f4a0f34d
update "Campaign"
set "amountRaised" = $2::bigint
where id = $1::bigint;
`

const QUpdateCampaignStatus = `--sql 0f5792af-df0a-459c-950f-9381b2ba3eb4
update "Campaign"
set status = $2::text::"CampaignStatus"
where id = $1::bigint;
`

const QSetCampaignActive = `--sql 7243fe70-5d9d-4c43-954c-8227260846a6
update "Campaign"
set "isActive" = $2::boolean
where id = $1::bigint;
`

const QCountCampaignDependents = `--sql c9532641-5979-4349-b331-79bcf2683f9f
select
    (select count(*) from "Donation" where "campaignId" = $1::bigint) +
    (select count(*) from "Milestone" where "campaignId" = $1::bigint) +
    (select count(*) from "Transaction" where "campaignId" = $1::bigint);
`

const QDeleteCampaign = `--sql 1a594c6d-8262-49d5-8583-97ad2c9334a0
delete from "Campaign"
where id = $1::bigint;
`

const QListCampaignDrift = `--sql e8e580eb-8e6a-44c7-b8f8-53f44ff984f6
select c.id, c."amountRaised", coalesce(t.total, 0)
from "Campaign" c
left join (
    select "campaignId", sum(amount) as total
    from "Transaction"
    where type = 'DONATION' and status = 'COMPLETED'
    group by "campaignId"
) t on t."campaignId" = c.id
where c."amountRaised" <> coalesce(t.total, 0)
order by c.id;
`
